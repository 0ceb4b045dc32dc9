package render

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spotmirror/internal/catalog"
)

type fakeFetcher struct {
	data []byte
	err  error
	urls []string
}

func (f *fakeFetcher) FetchFile(_ context.Context, url string) ([]byte, error) {
	f.urls = append(f.urls, url)
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

func spot(name string, cat catalog.Category) catalog.Spot {
	return catalog.Spot{Name: name, Category: cat, X: 10, Y: 20}
}

func TestRenderFarmSortsLast(t *testing.T) {
	r := &Renderer{}
	spots := []catalog.Spot{
		spot("B", "farm"),
		spot("A", "cave"),
		spot("C", "cave"),
	}

	msgs := r.Render(context.Background(), spots)
	require.Len(t, msgs, 5)

	assert.Equal(t, "## 📂 CAVE", msgs[0].Content)
	assert.Contains(t, msgs[1].Content, "**1. A**")
	assert.Contains(t, msgs[2].Content, "**2. C**")
	assert.Equal(t, "## 📂 FARM", msgs[3].Content)
	assert.Contains(t, msgs[4].Content, "**1. B**")
}

func TestRenderSortIgnoresInputOrder(t *testing.T) {
	r := &Renderer{}
	forward := []catalog.Spot{
		spot("A", "cave"), spot("B", "farm"), spot("C", "cave"),
	}
	backward := []catalog.Spot{
		spot("C", "cave"), spot("B", "farm"), spot("A", "cave"),
	}

	a := r.Render(context.Background(), forward)
	b := r.Render(context.Background(), backward)

	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].Content, b[i].Content)
	}
}

func TestRenderStableForDuplicateKeys(t *testing.T) {
	r := &Renderer{}
	spots := []catalog.Spot{
		{Name: "Twin", Category: "cave", X: 1, Y: 1},
		{Name: "Twin", Category: "cave", X: 2, Y: 2},
	}

	msgs := r.Render(context.Background(), spots)
	require.Len(t, msgs, 3)
	// Equal sort keys keep input order, so X=1/Y=1 renders first.
	assert.Contains(t, msgs[1].Content, "`1.0 / 1.0`")
	assert.Contains(t, msgs[2].Content, "`2.0 / 2.0`")
}

func TestRenderCapAndTruncationFooter(t *testing.T) {
	r := &Renderer{}
	var spots []catalog.Spot
	for i := 0; i < 100; i++ {
		spots = append(spots, spot(fmt.Sprintf("spot-%03d", i), "cave"))
	}

	msgs := r.Render(context.Background(), spots)
	require.LessOrEqual(t, len(msgs), DefaultMaxMessages)

	footer := msgs[len(msgs)-1]
	assert.Contains(t, footer.Content, "more spots omitted")

	// One category header, one footer, the rest are record bodies.
	bodies := len(msgs) - 2
	assert.LessOrEqual(t, bodies, DefaultMaxMessages)
	assert.Contains(t, footer.Content, fmt.Sprintf("%d more", len(spots)-bodies))
}

func TestRenderNoFooterWithoutTruncation(t *testing.T) {
	r := &Renderer{}
	msgs := r.Render(context.Background(), []catalog.Spot{spot("A", "cave")})
	require.Len(t, msgs, 2)
	for _, m := range msgs {
		assert.NotContains(t, m.Content, "omitted")
	}
}

func TestRenderEmptyInputYieldsNothing(t *testing.T) {
	r := &Renderer{}
	assert.Empty(t, r.Render(context.Background(), nil))
}

func TestDamageLineSuppression(t *testing.T) {
	r := &Renderer{}
	cases := []struct {
		damage string
		shown  bool
	}{
		{"", false},
		{"Nothing", false},
		{"NOTHING", false},
		{"nothing", false},
		{"Takes fall damage", true},
	}

	for _, tc := range cases {
		s := spot("A", "cave")
		s.Damage = tc.damage
		msgs := r.Render(context.Background(), []catalog.Spot{s})
		require.Len(t, msgs, 2)

		if tc.shown {
			assert.Equal(t, 1, strings.Count(msgs[1].Content, "💥 Damage: "+tc.damage), "damage %q", tc.damage)
		} else {
			assert.NotContains(t, msgs[1].Content, "💥 Damage", "damage %q", tc.damage)
		}
	}
}

func TestCoordinatesRenderYBeforeX(t *testing.T) {
	r := &Renderer{}
	s := catalog.Spot{Name: "A", Category: "cave", X: 111.5, Y: 222.5}

	msgs := r.Render(context.Background(), []catalog.Spot{s})
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[1].Content, "`222.5 / 111.5`")
}

func TestUnnamedSpotFallback(t *testing.T) {
	r := &Renderer{}
	msgs := r.Render(context.Background(), []catalog.Spot{spot("", "cave")})
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[1].Content, unnamedSpot)
}

func TestDescriptionRendersFenced(t *testing.T) {
	r := &Renderer{}
	s := spot("A", "cave")
	s.Description = "enter from the north"

	msgs := r.Render(context.Background(), []catalog.Spot{s})
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[1].Content, "```enter from the north```")
}

func TestVideoFileAttachmentFollowedBySeparator(t *testing.T) {
	f := &fakeFetcher{data: []byte("binary")}
	r := &Renderer{Fetcher: f}
	s := spot("A", "cave")
	s.VideoFile = "https://cdn.example.com/clips/a.MP4"

	msgs := r.Render(context.Background(), []catalog.Spot{s})
	require.Len(t, msgs, 3)
	require.NotNil(t, msgs[1].File)
	assert.Equal(t, "a.MP4", msgs[1].File.Name)
	assert.Equal(t, []byte("binary"), msgs[1].File.Data)
	assert.Equal(t, separator, msgs[2].Content)
	assert.Equal(t, []string{s.VideoFile}, f.urls)
}

func TestVideoFileFetchFailureFallsBackToText(t *testing.T) {
	f := &fakeFetcher{err: errors.New("boom")}
	r := &Renderer{Fetcher: f}
	s := spot("A", "cave")
	s.VideoFile = "https://cdn.example.com/clips/a.mp4"

	msgs := r.Render(context.Background(), []catalog.Spot{s})
	require.Len(t, msgs, 2)
	assert.Nil(t, msgs[1].File)
	assert.Contains(t, msgs[1].Content, "could not be retrieved")
}

func TestNonVideoFileExtensionIgnored(t *testing.T) {
	f := &fakeFetcher{data: []byte("x")}
	r := &Renderer{Fetcher: f}
	s := spot("A", "cave")
	s.VideoFile = "https://cdn.example.com/clips/a.txt"

	msgs := r.Render(context.Background(), []catalog.Spot{s})
	require.Len(t, msgs, 2)
	assert.Nil(t, msgs[1].File)
	assert.Empty(t, f.urls)
}

func TestExternalVideoURLOmitsSeparator(t *testing.T) {
	r := &Renderer{PublicBaseURL: "https://api.spotmirror.app/storage"}
	s := spot("A", "cave")
	s.VideoURL = "https://youtu.be/xyz"

	msgs := r.Render(context.Background(), []catalog.Spot{s})
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[1].Content, "🎥 https://youtu.be/xyz")
	assert.False(t, strings.HasSuffix(msgs[1].Content, separator))
}

func TestOwnStorageVideoURLKeepsSeparator(t *testing.T) {
	r := &Renderer{PublicBaseURL: "https://api.spotmirror.app/storage"}
	s := spot("A", "cave")
	s.VideoURL = "https://api.spotmirror.app/storage/v/1.mp4"

	msgs := r.Render(context.Background(), []catalog.Spot{s})
	require.Len(t, msgs, 2)
	assert.True(t, strings.HasSuffix(msgs[1].Content, separator))
}

// Package render turns an ordered set of spots into the ordered
// sequence of channel messages that represents one dataset.
//
// The ordering and cap rules here are policy, not accident: farm spots
// always sort last, output is capped so a dataset never floods a
// channel, and separators keep the feed scannable. Downstream users
// re-running /update rely on the output being deterministic.
package render

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"spotmirror/internal/catalog"
)

// DefaultMaxMessages caps how many messages one dataset may occupy in a
// channel, headers and truncation footer included.
const DefaultMaxMessages = 50

// separator is appended after a spot body (same message) or emitted as
// its own message after an attachment.
const separator = "▬▬▬▬▬▬▬▬▬▬▬▬▬▬▬"

const unnamedSpot = "Unnamed spot"

// suppressedDamage is the upstream literal meaning "no damage info".
const suppressedDamage = "nothing"

var videoFileExts = []string{".mp4", ".webm", ".mov"}

// File is a binary attachment for one message.
type File struct {
	Name string
	Data []byte
}

// Message is one unit of rendered output.
type Message struct {
	Content string
	File    *File
}

// FileFetcher retrieves a binary by URL. The renderer consumes the
// result synchronously and treats failure as a visible branch, not a
// silent drop.
type FileFetcher interface {
	FetchFile(ctx context.Context, url string) ([]byte, error)
}

// Renderer converts spots to messages.
type Renderer struct {
	// MaxMessages caps the rendered sequence; zero means
	// DefaultMaxMessages.
	MaxMessages int

	// Fetcher downloads video files for attachment. May be nil, in
	// which case every attachment falls back to the text-only note.
	Fetcher FileFetcher

	// PublicBaseURL identifies the system's own storage: video URLs
	// under it get a trailing separator, externally hosted ones do not
	// (the external link renders its own preview).
	PublicBaseURL string
}

// Render produces the message sequence for the given spots. The input
// order only matters for breaking exact sort-key ties (the sort is
// stable). An empty input yields an empty sequence — the "no spots
// found" message is the caller's responsibility, since only the caller
// knows the dataset name.
func (r *Renderer) Render(ctx context.Context, spots []catalog.Spot) []Message {
	max := r.MaxMessages
	if max <= 0 {
		max = DefaultMaxMessages
	}

	sorted := make([]catalog.Spot, len(spots))
	copy(sorted, spots)
	sortSpots(sorted)

	var out []Message
	var current catalog.Category
	haveCategory := false
	catIndex := 0

	for idx, sp := range sorted {
		newCategory := !haveCategory || sp.Category != current
		withFile := hasVideoFile(sp.VideoFile)

		// Worst-case message count for this spot: optional category
		// header, the body, and a separator message when a file gets
		// attached. One slot stays reserved for the truncation footer.
		needed := 1
		if newCategory {
			needed++
		}
		if withFile {
			needed++
		}
		if len(out)+needed+1 > max {
			omitted := len(sorted) - idx
			out = append(out, Message{
				Content: fmt.Sprintf("… %d more spots omitted. Narrow the dataset or browse the catalog directly.", omitted),
			})
			return out
		}

		if newCategory {
			out = append(out, Message{Content: categoryHeader(sp.Category)})
			current = sp.Category
			haveCategory = true
			catIndex = 0
		}
		catIndex++

		out = append(out, r.spotMessages(ctx, catIndex, sp)...)
	}

	return out
}

// sortSpots orders spots for rendering: farm category last, then by
// category name, then by spot name, all case-sensitive ascending. The
// sort is stable so equal keys keep their input order.
func sortSpots(spots []catalog.Spot) {
	sort.SliceStable(spots, func(i, j int) bool {
		pi, pj := spots[i].Category.Priority(), spots[j].Category.Priority()
		if pi != pj {
			return pi < pj
		}
		if spots[i].Category != spots[j].Category {
			return spots[i].Category < spots[j].Category
		}
		return spots[i].Name < spots[j].Name
	})
}

// spotMessages renders one spot into one or two messages, applying the
// attachment policy.
func (r *Renderer) spotMessages(ctx context.Context, index int, sp catalog.Spot) []Message {
	body := r.spotBody(index, sp)

	if hasVideoFile(sp.VideoFile) {
		data, err := r.fetchFile(ctx, sp.VideoFile)
		if err != nil {
			return []Message{{Content: body + "\n⚠️ Video attachment could not be retrieved."}}
		}
		return []Message{
			{Content: body, File: &File{Name: path.Base(sp.VideoFile), Data: data}},
			{Content: separator},
		}
	}

	if sp.VideoURL != "" && !strings.HasPrefix(sp.VideoURL, r.PublicBaseURL) {
		// External host renders its own preview, no separator needed.
		return []Message{{Content: body}}
	}

	return []Message{{Content: body + "\n" + separator}}
}

// spotBody builds the text block of one spot.
func (r *Renderer) spotBody(index int, sp catalog.Spot) string {
	name := sp.Name
	if name == "" {
		name = unnamedSpot
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**%d. %s**\n", index, name)
	// Upstream convention stores coordinates swapped, so Y renders
	// before X.
	fmt.Fprintf(&b, "📌 `%.1f / %.1f`", sp.Y, sp.X)

	if damageShown(sp.Damage) {
		fmt.Fprintf(&b, "\n💥 Damage: %s", sp.Damage)
	}

	if sp.Description != "" {
		fmt.Fprintf(&b, "\n```%s```", sp.Description)
	}

	if sp.VideoURL != "" {
		fmt.Fprintf(&b, "\n🎥 %s", sp.VideoURL)
	}

	return b.String()
}

func (r *Renderer) fetchFile(ctx context.Context, url string) ([]byte, error) {
	if r.Fetcher == nil {
		return nil, fmt.Errorf("no file fetcher configured")
	}
	return r.Fetcher.FetchFile(ctx, url)
}

func categoryHeader(c catalog.Category) string {
	return fmt.Sprintf("## 📂 %s", strings.ToUpper(string(c)))
}

// damageShown reports whether the damage descriptor earns its own
// line. Empty and the literal "nothing" (any case) are suppressed.
func damageShown(damage string) bool {
	return damage != "" && !strings.EqualFold(damage, suppressedDamage)
}

func hasVideoFile(file string) bool {
	if file == "" {
		return false
	}
	ext := strings.ToLower(path.Ext(file))
	for _, e := range videoFileExts {
		if ext == e {
			return true
		}
	}
	return false
}

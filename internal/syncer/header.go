package syncer

import (
	"fmt"
	"regexp"
)

// The dataset header is the first message of every rendered channel.
// Its format doubles as the recovery mechanism: when a channel has no
// stored binding, the recent history is scanned for this header to
// re-learn which dataset the channel mirrors.
const datasetHeaderFormat = "# 🗺️ Spots — server: `%s` · map: `%s`"

var datasetHeaderPattern = regexp.MustCompile("server: `([^`]+)` · map: `([^`]+)`")

// DatasetHeader renders the channel header for a dataset.
func DatasetHeader(server, mapName string) string {
	return fmt.Sprintf(datasetHeaderFormat, server, mapName)
}

// parseDatasetHeader extracts (server, map) from a message previously
// produced by DatasetHeader.
func parseDatasetHeader(content string) (server, mapName string, ok bool) {
	m := datasetHeaderPattern.FindStringSubmatch(content)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

package helm

import (
	"errors"
	"io"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/akuity/artifact-resolver/internal/artifacts"
)

// IndexParser reads chart repository index documents (index.yaml). It walks
// the YAML node tree rather than unmarshaling into a map so that names come
// back in the order the repository listed them, and so that a malformed entry
// can be skipped without discarding the rest of the document.
type IndexParser struct{}

var _ artifacts.IndexParser = IndexParser{}

// FindNames implements artifacts.IndexParser.
func (IndexParser) FindNames(index io.Reader) ([]string, error) {
	entries, err := decodeEntries(index)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries)/2)
	seen := make(map[string]struct{}, len(entries)/2)
	for i := 0; i+1 < len(entries); i += 2 {
		key := resolve(entries[i])
		if key.Kind != yaml.ScalarNode || key.Value == "" {
			continue
		}
		if _, ok := seen[key.Value]; ok {
			continue
		}
		seen[key.Value] = struct{}{}
		names = append(names, key.Value)
	}
	return names, nil
}

// FindVersions implements artifacts.IndexParser.
func (IndexParser) FindVersions(index io.Reader, name string) ([]string, error) {
	versions, err := findChartVersions(index, name)
	if err != nil {
		return nil, err
	}
	res := make([]string, len(versions))
	for i, v := range versions {
		res[i] = v.version
	}
	return res, nil
}

// FindURLs returns the download URLs recorded for the given version of the
// named chart. When version is empty, the greatest stable semantic version is
// selected, falling back to the greatest pre-release and finally to the first
// listed version if none of the versions are semantic. An empty slice is
// returned if the chart or version is not in the index.
func (IndexParser) FindURLs(index io.Reader, name, version string) ([]string, error) {
	versions, err := findChartVersions(index, name)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return []string{}, nil
	}
	if version == "" {
		return latest(versions).urls, nil
	}
	for _, v := range versions {
		if v.version == version {
			return v.urls, nil
		}
	}
	return []string{}, nil
}

type chartVersion struct {
	version string
	urls    []string
}

func latest(versions []chartVersion) chartVersion {
	var best, bestPre *semver.Version
	var bestIdx, bestPreIdx int
	for i, v := range versions {
		sv, err := semver.NewVersion(v.version)
		if err != nil {
			continue
		}
		if sv.Prerelease() == "" {
			if best == nil || sv.GreaterThan(best) {
				best, bestIdx = sv, i
			}
		} else if bestPre == nil || sv.GreaterThan(bestPre) {
			bestPre, bestPreIdx = sv, i
		}
	}
	switch {
	case best != nil:
		return versions[bestIdx]
	case bestPre != nil:
		return versions[bestPreIdx]
	default:
		return versions[0]
	}
}

// findChartVersions returns the well-formed versions listed under name.
func findChartVersions(index io.Reader, name string) ([]chartVersion, error) {
	entries, err := decodeEntries(index)
	if err != nil {
		return nil, err
	}
	for i := 0; i+1 < len(entries); i += 2 {
		key := resolve(entries[i])
		if key.Kind != yaml.ScalarNode || key.Value != name {
			continue
		}
		list := resolve(entries[i+1])
		if list.Kind != yaml.SequenceNode {
			// A malformed entry for this chart lists no versions.
			return []chartVersion{}, nil
		}
		versions := make([]chartVersion, 0, len(list.Content))
		for _, item := range list.Content {
			item = resolve(item)
			if item.Kind != yaml.MappingNode {
				continue
			}
			v := resolve(mappingValue(item, "version"))
			if v == nil || v.Kind != yaml.ScalarNode || v.Value == "" {
				continue
			}
			versions = append(versions, chartVersion{
				version: v.Value,
				urls:    scalars(resolve(mappingValue(item, "urls"))),
			})
		}
		return versions, nil
	}
	return []chartVersion{}, nil
}

// decodeEntries decodes an index document and returns the key/value node
// pairs of its top-level entries mapping. A document without entries has none.
func decodeEntries(index io.Reader) ([]*yaml.Node, error) {
	doc := &yaml.Node{}
	if err := yaml.NewDecoder(index).Decode(doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &artifacts.IndexParseError{Err: errors.New("index is empty")}
		}
		return nil, &artifacts.IndexParseError{Err: err}
	}
	root := doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return nil, &artifacts.IndexParseError{Err: errors.New("index is empty")}
		}
		root = resolve(root.Content[0])
	}
	if root.Kind != yaml.MappingNode {
		return nil, &artifacts.IndexParseError{Err: errors.New("index is not a mapping")}
	}
	entries := resolve(mappingValue(root, "entries"))
	switch {
	case entries == nil:
		return nil, nil
	case entries.Kind == yaml.ScalarNode && entries.Tag == "!!null":
		return nil, nil
	case entries.Kind != yaml.MappingNode:
		return nil, &artifacts.IndexParseError{Err: errors.New("index entries are not a mapping")}
	}
	return entries.Content, nil
}

func mappingValue(m *yaml.Node, key string) *yaml.Node {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if k := resolve(m.Content[i]); k.Kind == yaml.ScalarNode && k.Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func scalars(n *yaml.Node) []string {
	if n == nil || n.Kind != yaml.SequenceNode {
		return []string{}
	}
	res := make([]string, 0, len(n.Content))
	for _, item := range n.Content {
		if item = resolve(item); item.Kind == yaml.ScalarNode && item.Value != "" {
			res = append(res, item.Value)
		}
	}
	return res
}

// resolve follows aliases.
func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

package artifacts

import (
	"context"
	"errors"
	"io"
	"strings"
)

type fakeCredential struct {
	Account
	downloadFn func(context.Context, Reference) (io.ReadCloser, error)
}

func newFakeCredential(name string, types ...string) *fakeCredential {
	return &fakeCredential{
		Account: NewAccount(name, types...),
		downloadFn: func(_ context.Context, ref Reference) (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(name + ":" + ref.Reference)), nil
		},
	}
}

func (f *fakeCredential) Download(
	ctx context.Context,
	ref Reference,
) (io.ReadCloser, error) {
	return f.downloadFn(ctx, ref)
}

type fakeIndexedCredential struct {
	*fakeCredential
	indexFn func(context.Context) (io.ReadCloser, error)
	parser  IndexParser
}

func newFakeIndexedCredential(
	name string,
	artifactType string,
	index string,
) *fakeIndexedCredential {
	return &fakeIndexedCredential{
		fakeCredential: newFakeCredential(name, artifactType),
		indexFn: func(context.Context) (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(index)), nil
		},
		parser: lineIndexParser{},
	}
}

func (f *fakeIndexedCredential) DownloadIndex(
	ctx context.Context,
) (io.ReadCloser, error) {
	return f.indexFn(ctx)
}

func (f *fakeIndexedCredential) IndexParser() IndexParser {
	return f.parser
}

// lineIndexParser reads indexes made of "name version" lines.
type lineIndexParser struct{}

func (lineIndexParser) FindNames(index io.Reader) ([]string, error) {
	lines, err := readLines(index)
	if err != nil {
		return nil, err
	}
	names := []string{}
	for _, line := range lines {
		name, _, _ := strings.Cut(line, " ")
		if len(names) == 0 || names[len(names)-1] != name {
			names = append(names, name)
		}
	}
	return names, nil
}

func (lineIndexParser) FindVersions(index io.Reader, name string) ([]string, error) {
	lines, err := readLines(index)
	if err != nil {
		return nil, err
	}
	versions := []string{}
	for _, line := range lines {
		if n, v, ok := strings.Cut(line, " "); ok && n == name {
			versions = append(versions, v)
		}
	}
	return versions, nil
}

func readLines(index io.Reader) ([]string, error) {
	b, err := io.ReadAll(index)
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(string(b), "!") {
		return nil, &IndexParseError{Err: errors.New("garbage")}
	}
	lines := []string{}
	for _, line := range strings.Split(string(b), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

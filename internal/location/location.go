// Package location maps syntax nodes to source positions, de-mapping generated
// files through their source maps.
package location

import (
	"encoding/json"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode/utf16"

	"github.com/charmbracelet/log"
	"github.com/go-sourcemap/sourcemap"
	"github.com/vincent-petithory/dataurl"

	"github.com/phobologic/docgraph/internal/frontend"
	"github.com/phobologic/docgraph/internal/model"
)

// sourceMappingURLRe matches a trailing sourceMappingURL comment in either
// line or block form. Only the last match in a file counts, so URLs quoted in
// earlier comments or strings are ignored.
var sourceMappingURLRe = regexp.MustCompile(
	`(?m)(?://[@#]\s*sourceMappingURL=([^\s'"]+)\s*$)|(?:/\*[@#]\s*sourceMappingURL=([^\s*'"]+)\s*\*/\s*$)`)

// Resolver computes locations relative to a fixed source root. Source maps
// are loaded at most once per file. A Resolver is safe for concurrent use.
type Resolver struct {
	sourceRoot string
	logger     *log.Logger

	mu      sync.Mutex
	mappers map[string]*mapper
}

type mapper struct {
	consumer   *sourcemap.Consumer // nil when the file has no usable map
	mappedRoot string              // directory the map's sources are relative to

	// columns holds the mapped generated columns of each generated line,
	// sorted. It is nil for index maps, which carry sections instead.
	columns [][]int
}

// New returns a Resolver for paths under sourceRoot. A nil logger discards
// warnings.
func New(sourceRoot string, logger *log.Logger) *Resolver {
	if abs, err := filepath.Abs(sourceRoot); err == nil {
		sourceRoot = abs
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Resolver{
		sourceRoot: sourceRoot,
		logger:     logger,
		mappers:    make(map[string]*mapper),
	}
}

// Resolve returns the location of n. When the file carries a source map, the
// location is that of the original source. A position between mappings
// resolves to the nearest preceding mapping on the same line, or to the
// line's first mapping when none precedes it.
func (r *Resolver) Resolve(n frontend.Node) model.Location {
	gen := r.generated(n)
	m := r.mapperFor(n.File)
	if m.consumer == nil {
		return gen
	}

	var (
		source    string
		line, col int
		ok        bool
	)
	if m.columns != nil {
		mapped, found := m.column(gen.Line, gen.Char-1)
		if !found {
			return gen
		}
		source, _, line, col, ok = m.consumer.Source(gen.Line, mapped)
	} else {
		source, _, line, col, ok = m.consumer.Source(gen.Line, gen.Char-1)
		if !ok {
			source, _, line, col, ok = m.consumer.Source(gen.Line, 0)
		}
	}
	if !ok {
		return gen
	}
	loc := model.Location{Path: gen.Path, Line: line, Char: col + 1}
	if source != "" {
		loc.Path = r.relative(m.sourcePath(source))
	}
	return loc
}

// column returns the mapped column of the 1-based generated line that the
// 0-based col resolves to.
func (m *mapper) column(line, col int) (int, bool) {
	if line < 1 || line > len(m.columns) || len(m.columns[line-1]) == 0 {
		return 0, false
	}
	cols := m.columns[line-1]
	i := sort.Search(len(cols), func(i int) bool { return cols[i] > col })
	if i == 0 {
		return cols[0], true
	}
	return cols[i-1], true
}

// sourcePath returns the file a map source names. Absolute paths and file
// URLs stand as they are; anything else is relative to the map's directory.
func (m *mapper) sourcePath(source string) string {
	if u, err := url.Parse(source); err == nil && u.Scheme == "file" {
		return filepath.FromSlash(u.Path)
	}
	p := filepath.FromSlash(source)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.mappedRoot, p)
}

// generated returns the position of n in its own file. Char counts UTF-16
// code units, the unit source maps use for columns.
func (r *Resolver) generated(n frontend.Node) model.Location {
	pt := n.N.StartPoint()
	start := int(n.N.StartByte())
	lineStart := start - int(pt.Column)
	prefix := string(n.File.Source[lineStart:start])
	return model.Location{
		Path: r.relative(n.File.Path),
		Line: int(pt.Row) + 1,
		Char: len(utf16.Encode([]rune(prefix))) + 1,
	}
}

func (r *Resolver) relative(path string) string {
	rel, err := filepath.Rel(r.sourceRoot, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func (r *Resolver) mapperFor(f *frontend.SourceFile) *mapper {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.mappers[f.Path]; ok {
		return m
	}
	m := r.loadMapper(f)
	r.mappers[f.Path] = m
	return m
}

func (r *Resolver) loadMapper(f *frontend.SourceFile) *mapper {
	ref := SourceMappingURL(f.Source)
	if ref == "" {
		return &mapper{}
	}
	dir := filepath.Dir(f.Path)

	var (
		data       []byte
		mappedRoot string
	)
	if strings.HasPrefix(ref, "data:") {
		du, err := dataurl.DecodeString(ref)
		if err != nil {
			r.logger.Warn("malformed inline source map", "path", r.relative(f.Path), "err", err)
			return &mapper{}
		}
		data = du.Data
		mappedRoot = dir
	} else {
		mapPath := filepath.Join(dir, filepath.FromSlash(ref))
		b, err := os.ReadFile(mapPath)
		if err != nil {
			r.logger.Warn("unreadable source map", "path", r.relative(f.Path), "map", ref, "err", err)
			return &mapper{}
		}
		data = b
		mappedRoot = filepath.Dir(mapPath)
	}

	consumer, err := sourcemap.Parse("", data)
	if err != nil {
		r.logger.Warn("malformed source map", "path", r.relative(f.Path), "err", err)
		return &mapper{}
	}
	return &mapper{consumer: consumer, mappedRoot: mappedRoot, columns: mappedColumns(data)}
}

const vlqAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// mappedColumns decodes the generated columns of every segment in a map's
// mappings, grouped by generated line. It returns nil for index maps and for
// mappings it cannot decode.
func mappedColumns(data []byte) [][]int {
	var raw struct {
		Mappings string            `json:"mappings"`
		Sections []json.RawMessage `json:"sections"`
	}
	if err := json.Unmarshal(data, &raw); err != nil || len(raw.Sections) > 0 {
		return nil
	}
	lines := strings.Split(raw.Mappings, ";")
	columns := make([][]int, len(lines))
	for i, line := range lines {
		col := 0
		for _, seg := range strings.Split(line, ",") {
			if seg == "" {
				continue
			}
			delta, ok := decodeVLQ(seg)
			if !ok {
				return nil
			}
			col += delta
			columns[i] = append(columns[i], col)
		}
		sort.Ints(columns[i])
	}
	return columns
}

// decodeVLQ decodes the first base64 VLQ value of a mappings segment.
func decodeVLQ(seg string) (int, bool) {
	var v, shift int
	for i := 0; i < len(seg); i++ {
		digit := strings.IndexByte(vlqAlphabet, seg[i])
		if digit < 0 {
			return 0, false
		}
		v += (digit & 31) << shift
		if digit&32 == 0 {
			if v&1 == 1 {
				return -(v >> 1), true
			}
			return v >> 1, true
		}
		shift += 5
	}
	return 0, false
}

// SourceMappingURL returns the URL of the last sourceMappingURL comment in
// source, or "".
func SourceMappingURL(source []byte) string {
	matches := sourceMappingURLRe.FindAllSubmatch(source, -1)
	if len(matches) == 0 {
		return ""
	}
	last := matches[len(matches)-1]
	if len(last[1]) > 0 {
		return string(last[1])
	}
	return string(last[2])
}

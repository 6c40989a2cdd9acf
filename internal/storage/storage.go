package storage

import (
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/happyhackingspace/featx/nlp"
)

// Storage wraps the annotation data folder.
type Storage struct {
	Folder string
}

// NewStorage creates a Storage for the given data folder.
func NewStorage(folder string) *Storage {
	return &Storage{Folder: folder}
}

// configJSON is the structure of the optional config.json.
type configJSON struct {
	Frames labelConfig `json:"frames"`
	Roles  labelConfig `json:"roles"`
}

type labelConfig struct {
	NAValue     string            `json:"NA_value"`
	SkipValue   string            `json:"skip_value"`
	SimplifyMap map[string]string `json:"simplify_map"`
}

// indexEntry represents a single entry in index.json.
type indexEntry struct {
	URL       string          `json:"url"`
	Sentences []sentenceEntry `json:"sentences"`
}

type sentenceEntry struct {
	Sentence int          `json:"sentence"`
	Frames   []frameEntry `json:"frames"`
}

type frameEntry struct {
	Target span       `json:"target"`
	Frame  string     `json:"frame"`
	Args   []argEntry `json:"args"`
}

type argEntry struct {
	Role string `json:"role"`
	Span span   `json:"span"`
}

// GetConfig reads config.json. A missing file yields an empty config.
func (s *Storage) GetConfig() (*configJSON, error) {
	data, err := os.ReadFile(filepath.Join(s.Folder, "config.json"))
	if errors.Is(err, os.ErrNotExist) {
		return &configJSON{}, nil
	}
	if err != nil {
		return nil, err
	}
	var config configJSON
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

// GetFrameSchema returns the frame label schema.
func (s *Storage) GetFrameSchema() (*AnnotationSchema, error) {
	config, err := s.GetConfig()
	if err != nil {
		return nil, err
	}
	return buildSchema(config.Frames), nil
}

// GetRoleSchema returns the role label schema.
func (s *Storage) GetRoleSchema() (*AnnotationSchema, error) {
	config, err := s.GetConfig()
	if err != nil {
		return nil, err
	}
	return buildSchema(config.Roles), nil
}

func buildSchema(lc labelConfig) *AnnotationSchema {
	return &AnnotationSchema{
		NAValue:     lc.NAValue,
		SkipValue:   lc.SkipValue,
		SimplifyMap: lc.SimplifyMap,
	}
}

// GetIndex reads the index file.
func (s *Storage) GetIndex() (map[string]indexEntry, error) {
	data, err := os.ReadFile(filepath.Join(s.Folder, "index.json"))
	if err != nil {
		return nil, err
	}
	var index map[string]indexEntry
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, err
	}
	return index, nil
}

// IterAnnotations returns the annotated sentences of the corpus ordered
// by source domain, then file path, then sentence index. Unreadable files
// and out-of-range annotations are logged and skipped.
func (s *Storage) IterAnnotations(opts IterOptions) ([]SentenceAnnotation, error) {
	frameSchema, err := s.GetFrameSchema()
	if err != nil {
		return nil, fmt.Errorf("get frame schema: %w", err)
	}
	roleSchema, err := s.GetRoleSchema()
	if err != nil {
		return nil, fmt.Errorf("get role schema: %w", err)
	}
	index, err := s.GetIndex()
	if err != nil {
		return nil, fmt.Errorf("get index: %w", err)
	}

	// Sort by domain + path for deterministic ordering
	type pathInfo struct {
		path string
		info indexEntry
	}
	sorted := make([]pathInfo, 0, len(index))
	for path, info := range index {
		sorted = append(sorted, pathInfo{path, info})
	}
	sort.Slice(sorted, func(i, j int) bool {
		di := GetDomain(sorted[i].info.URL)
		dj := GetDomain(sorted[j].info.URL)
		if di != dj {
			return di < dj
		}
		return sorted[i].path < sorted[j].path
	})

	seen := make(map[string]bool)
	var annotations []SentenceAnnotation

	for _, pi := range sorted {
		sents, err := nlp.ReadCoNLLFile(filepath.Join(s.Folder, pi.path))
		if err != nil {
			slog.Warn("Cannot read annotation file", "path", pi.path, "error", err)
			continue
		}

		entries := pi.info.Sentences
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Sentence < entries[j].Sentence })

		for _, se := range entries {
			if se.Sentence < 0 || se.Sentence >= len(sents) {
				slog.Warn("Sentence index out of range", "path", pi.path, "sentence", se.Sentence, "count", len(sents))
				continue
			}
			sent := sents[se.Sentence]

			// Deduplication by sentence content hash
			if opts.DropDuplicates {
				hash := fmt.Sprintf("%x", md5.Sum([]byte(strings.Join(sent.Words(), "\t"))))
				if seen[hash] {
					if opts.Verbose {
						slog.Debug("Skipping duplicate sentence", "path", pi.path, "sentence", se.Sentence)
					}
					continue
				}
				seen[hash] = true
			}

			ann := SentenceAnnotation{
				Path:     pi.path,
				URL:      pi.info.URL,
				Index:    se.Sentence,
				Sentence: sent,
			}
			for _, fe := range se.Frames {
				frame, ok := buildFrame(fe, sent.Len(), frameSchema, roleSchema, opts)
				if !ok {
					if opts.Verbose {
						slog.Debug("Skipping frame", "path", pi.path, "sentence", se.Sentence, "frame", fe.Frame)
					}
					continue
				}
				ann.Frames = append(ann.Frames, frame)
			}
			annotations = append(annotations, ann)
		}
	}

	return annotations, nil
}

func buildFrame(fe frameEntry, n int, frameSchema, roleSchema *AnnotationSchema, opts IterOptions) (FrameAnnotation, bool) {
	name := fe.Frame
	if opts.SimplifyFrames {
		name = frameSchema.Simplify(name)
	}
	if name == "" || name == frameSchema.NAValue {
		return FrameAnnotation{}, false
	}
	if opts.DropSkipped && frameSchema.SkipValue != "" && name == frameSchema.SkipValue {
		return FrameAnnotation{}, false
	}
	target, err := fe.Target.toSpan()
	if err != nil || target.End > n || target.Width() == 0 {
		slog.Warn("Invalid target span", "frame", fe.Frame, "target", fe.Target)
		return FrameAnnotation{}, false
	}

	frame := FrameAnnotation{Target: target, Frame: name}
	for _, ae := range fe.Args {
		role := ae.Role
		if opts.SimplifyRoles {
			role = roleSchema.Simplify(role)
		}
		if role == "" || role == roleSchema.NAValue {
			continue
		}
		if opts.DropSkipped && roleSchema.SkipValue != "" && role == roleSchema.SkipValue {
			continue
		}
		sp, err := ae.Span.toSpan()
		if err != nil || sp.End > n || sp.Width() == 0 {
			slog.Warn("Invalid argument span", "frame", name, "role", role, "span", ae.Span)
			continue
		}
		frame.Args = append(frame.Args, ArgAnnotation{Role: role, Span: sp})
	}
	return frame, true
}

// IterOptions controls annotation iteration behavior.
type IterOptions struct {
	DropDuplicates bool
	DropSkipped    bool
	SimplifyFrames bool
	SimplifyRoles  bool
	Verbose        bool
}

// DefaultIterOptions returns the default options for iterating annotations.
func DefaultIterOptions() IterOptions {
	return IterOptions{
		DropDuplicates: true,
		DropSkipped:    true,
		SimplifyFrames: true,
		SimplifyRoles:  true,
	}
}

// GetDomain extracts the domain name from a URL (for grouping documents).
func GetDomain(rawURL string) string {
	// Extract host from URL
	host := rawURL
	if idx := strings.Index(host, "://"); idx >= 0 {
		host = host[idx+3:]
	}
	if idx := strings.Index(host, "/"); idx >= 0 {
		host = host[:idx]
	}
	if idx := strings.Index(host, ":"); idx >= 0 {
		host = host[:idx]
	}

	// Use publicsuffix to find the eTLD+1, then extract just the domain
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	// domain is like "example.co.uk", we want just "example"
	if idx := strings.Index(domain, "."); idx >= 0 {
		return domain[:idx]
	}
	return domain
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"aplite/internal/onboarding/drafts"
	"aplite/internal/onboarding/models"
	id "aplite/pkg/domain"
	"aplite/pkg/platform/sentinel"
)

// FileStore keeps drafts in a YAML file so the CLI can resume across runs.
type FileStore struct {
	mu   sync.Mutex
	path string
}

type fileDoc struct {
	Namespaces map[string]fileRecord `yaml:"namespaces"`
}

type fileRecord struct {
	SessionID string         `yaml:"session_id,omitempty"`
	Owner     string         `yaml:"owner,omitempty"`
	Device    string         `yaml:"device,omitempty"`
	Visited   []int          `yaml:"visited,omitempty"`
	UpdatedAt time.Time      `yaml:"updated_at"`
	Drafts    map[string]any `yaml:"drafts"`
}

func NewFile(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Load(_ context.Context, ns id.Namespace) (drafts.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return drafts.Record{}, err
	}
	fr, ok := doc.Namespaces[ns.String()]
	if !ok {
		return drafts.Record{}, sentinel.ErrNotFound
	}
	return fr.toRecord()
}

func (s *FileStore) Save(_ context.Context, ns id.Namespace, rec drafts.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	fr, err := fromRecord(rec)
	if err != nil {
		return err
	}
	doc.Namespaces[ns.String()] = fr
	return s.write(doc)
}

func (s *FileStore) Delete(_ context.Context, ns id.Namespace) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	delete(doc.Namespaces, ns.String())
	return s.write(doc)
}

func (s *FileStore) read() (fileDoc, error) {
	doc := fileDoc{Namespaces: map[string]fileRecord{}}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return doc, nil
		}
		return doc, fmt.Errorf("read drafts file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return doc, fmt.Errorf("parse drafts file: %w", err)
	}
	if doc.Namespaces == nil {
		doc.Namespaces = map[string]fileRecord{}
	}
	return doc, nil
}

// write replaces the file atomically.
func (s *FileStore) write(doc fileDoc) error {
	raw, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode drafts file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create drafts dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write drafts file: %w", err)
	}
	return os.Rename(tmp, s.path)
}

// Drafts are stored under their JSON field names so the file reads like the
// API payloads.
func fromRecord(rec drafts.Record) (fileRecord, error) {
	raw, err := json.Marshal(rec.Drafts)
	if err != nil {
		return fileRecord{}, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return fileRecord{}, err
	}
	fr := fileRecord{
		Device:    rec.Device,
		UpdatedAt: rec.UpdatedAt.UTC(),
		Drafts:    m,
	}
	if !rec.SessionID.IsNil() {
		fr.SessionID = rec.SessionID.String()
	}
	if !rec.Owner.IsNil() {
		fr.Owner = rec.Owner.String()
	}
	for _, step := range rec.Visited {
		fr.Visited = append(fr.Visited, int(step))
	}
	return fr, nil
}

func (fr fileRecord) toRecord() (drafts.Record, error) {
	rec := drafts.Record{Device: fr.Device, UpdatedAt: fr.UpdatedAt}
	if fr.SessionID != "" {
		sid, err := id.ParseSessionID(fr.SessionID)
		if err != nil {
			return drafts.Record{}, fmt.Errorf("drafts file session id: %w", err)
		}
		rec.SessionID = sid
	}
	if fr.Owner != "" {
		owner, err := id.ParseUserID(fr.Owner)
		if err != nil {
			return drafts.Record{}, fmt.Errorf("drafts file owner: %w", err)
		}
		rec.Owner = owner
	}
	for _, v := range fr.Visited {
		rec.Visited = append(rec.Visited, models.StepID(v))
	}
	raw, err := json.Marshal(fr.Drafts)
	if err != nil {
		return drafts.Record{}, err
	}
	if err := json.Unmarshal(raw, &rec.Drafts); err != nil {
		return drafts.Record{}, fmt.Errorf("drafts file contents: %w", err)
	}
	return rec, nil
}

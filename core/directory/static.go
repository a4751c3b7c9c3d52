package directory

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/timetable/core/model"
)

// SchoolFile is the on-disk description of a school.
type SchoolFile struct {
	Days             []model.Day                         `json:"days" yaml:"days"`
	MaxWeeklyPeriods int                                 `json:"max_weekly_periods" yaml:"max_weekly_periods"`
	Wings            []model.Wing                        `json:"wings" yaml:"wings"`
	Grades           []model.Grade                       `json:"grades" yaml:"grades"`
	Sections         []model.Section                     `json:"sections" yaml:"sections"`
	Rooms            []model.Room                        `json:"rooms" yaml:"rooms"`
	Subjects         []string                            `json:"subjects" yaml:"subjects"`
	Slots            map[model.WingType][]model.TimeSlot `json:"slots" yaml:"slots"`
	// RoleWings maps a role name to the wing-types it may teach.
	RoleWings   map[string][]model.WingType `json:"role_wings" yaml:"role_wings"`
	Teachers    []model.Teacher             `json:"teachers" yaml:"teachers"`
	Assignments []model.Assignment          `json:"assignments" yaml:"assignments"`
	Blocks      []model.CombinedBlock       `json:"blocks" yaml:"blocks"`
}

// LoadFile reads a SchoolFile from a JSON or YAML file.
func LoadFile(path string) (SchoolFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return SchoolFile{}, err
	}
	defer func() { _ = f.Close() }()
	return Decode(f, strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))
}

// Decode reads a SchoolFile from r in the given format ("yaml", "yml" or "json").
func Decode(r io.Reader, format string) (SchoolFile, error) {
	var sf SchoolFile
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&sf); err != nil {
			return sf, fmt.Errorf("decode school yaml: %w", err)
		}
	case "json":
		if err := json.NewDecoder(r).Decode(&sf); err != nil {
			return sf, fmt.Errorf("decode school json: %w", err)
		}
	default:
		return sf, fmt.Errorf("unsupported format: %s", format)
	}
	return sf, nil
}

// Static is an in-memory Directory built from a SchoolFile.
type Static struct {
	file     SchoolFile
	wings    map[string]model.Wing
	grades   map[string]model.Grade
	sections map[string]model.Section
	teachers map[string]model.Teacher
}

// NewStatic indexes sf and checks its references.
func NewStatic(sf SchoolFile) (*Static, error) {
	s := &Static{
		file:     sf,
		wings:    make(map[string]model.Wing, len(sf.Wings)),
		grades:   make(map[string]model.Grade, len(sf.Grades)),
		sections: make(map[string]model.Section, len(sf.Sections)),
		teachers: make(map[string]model.Teacher, len(sf.Teachers)),
	}
	if s.file.MaxWeeklyPeriods <= 0 {
		s.file.MaxWeeklyPeriods = DefaultMaxWeeklyPeriods
	}
	if len(s.file.Days) == 0 {
		s.file.Days = []model.Day{model.Monday, model.Tuesday, model.Wednesday, model.Thursday, model.Friday}
	}
	for _, w := range sf.Wings {
		s.wings[w.ID] = w
	}
	for _, g := range sf.Grades {
		if _, ok := s.wings[g.WingID]; !ok {
			return nil, fmt.Errorf("grade %s: unknown wing %s", g.ID, g.WingID)
		}
		s.grades[g.ID] = g
	}
	s.file.Sections = append([]model.Section(nil), sf.Sections...)
	for i, sec := range sf.Sections {
		g, ok := s.grades[sec.GradeID]
		if !ok {
			return nil, fmt.Errorf("section %s: %w %s", sec.ID, model.ErrUnknownGrade, sec.GradeID)
		}
		if sec.WingID == "" {
			sec.WingID = g.WingID
			s.file.Sections[i] = sec
		}
		if _, ok := s.wings[sec.WingID]; !ok {
			return nil, fmt.Errorf("section %s: unknown wing %s", sec.ID, sec.WingID)
		}
		s.sections[sec.ID] = sec
	}
	for _, t := range sf.Teachers {
		if _, dup := s.teachers[t.ID]; dup {
			return nil, fmt.Errorf("duplicate teacher %s", t.ID)
		}
		s.teachers[t.ID] = t
	}
	return s, nil
}

// Load reads and indexes a school file.
func Load(path string) (*Static, error) {
	sf, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return NewStatic(sf)
}

// File returns the underlying school description.
func (s *Static) File() SchoolFile { return s.file }

func (s *Static) Teacher(id string) (model.Teacher, bool) {
	t, ok := s.teachers[id]
	return t, ok
}

func (s *Static) Teachers() []model.Teacher {
	return append([]model.Teacher(nil), s.file.Teachers...)
}

// Eligible reports whether any of the teacher's roles grants wt.
func (s *Static) Eligible(teacherID string, wt model.WingType) bool {
	t, ok := s.teachers[teacherID]
	if !ok {
		return false
	}
	for _, role := range t.Roles() {
		for _, w := range s.file.RoleWings[role] {
			if w == wt {
				return true
			}
		}
	}
	return false
}

func (s *Static) Wing(id string) (model.Wing, bool) {
	w, ok := s.wings[id]
	return w, ok
}

func (s *Static) Grade(id string) (model.Grade, bool) {
	g, ok := s.grades[id]
	return g, ok
}

func (s *Static) Section(id string) (model.Section, bool) {
	sec, ok := s.sections[id]
	return sec, ok
}

func (s *Static) Sections(gradeID string) []model.Section {
	var out []model.Section
	for _, sec := range s.file.Sections {
		if sec.GradeID == gradeID {
			out = append(out, sec)
		}
	}
	return out
}

func (s *Static) Rooms() []model.Room { return append([]model.Room(nil), s.file.Rooms...) }

func (s *Static) Subjects() []string { return append([]string(nil), s.file.Subjects...) }

func (s *Static) Slots(wt model.WingType) []model.TimeSlot {
	return append([]model.TimeSlot(nil), s.file.Slots[wt]...)
}

func (s *Static) Days() []model.Day { return append([]model.Day(nil), s.file.Days...) }

func (s *Static) MaxWeeklyPeriods() int { return s.file.MaxWeeklyPeriods }

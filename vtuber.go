package main

import (
	"embed"
	"encoding/json"
	"math/rand"
	"strconv"
	"strings"
)

//go:embed assets/vtubers.json
var vtuberAssets embed.FS

// VTuber is one guessable entry of the static dataset. The dataset is
// loaded once at startup and treated as read-only afterwards.
type VTuber struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	NameEN      string   `json:"nameEN"`
	Agency      string   `json:"agency"`
	DebutDate   string   `json:"debutDate"` // YYYY-MM-DD
	BirthDate   string   `json:"birthDate"` // M-D, year intentionally absent
	Description string   `json:"description"`
	Zodiac      string   `json:"zodiac"`
	Gender      string   `json:"gender"`
	Age         int      `json:"age"`
	HairColor   string   `json:"hairColor"`
	EyeColor    string   `json:"eyeColor"`
	Height      int      `json:"height"` // cm
	Tags        []string `json:"tags"`
	Status      string   `json:"status"` // active, inactive or retired
}

// HasTag reports whether the entry carries the given tag.
func (v *VTuber) HasTag(tag string) bool {
	for _, t := range v.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// birthDateKey normalizes a "M-D" birth date into a single sortable
// integer (month*100+day). Missing or unparseable dates sort as 0.
func birthDateKey(birthDate string) int {
	month, day, found := strings.Cut(birthDate, "-")
	if !found {
		return 0
	}
	m, err := strconv.Atoi(month)
	if err != nil {
		return 0
	}
	d, err := strconv.Atoi(day)
	if err != nil {
		m = 0
		d = 0
	}
	return m*100 + d
}

// debutDateKey normalizes a "YYYY-MM-DD" debut date the same way, so
// that later dates compare greater. Unparseable dates sort as 0.
func debutDateKey(debutDate string) int {
	parts := strings.SplitN(debutDate, "-", 3)
	if len(parts) != 3 {
		return 0
	}
	key := 0
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return 0
		}
		key = key*100 + n
	}
	return key
}

// Dataset holds the embedded VTuber entries plus the deduplicated tag
// vocabulary used for random display names.
type Dataset struct {
	vtubers []VTuber
	byID    map[string]*VTuber
	tags    []string
}

func loadDataset() (*Dataset, error) {
	data, err := vtuberAssets.ReadFile("assets/vtubers.json")
	if err != nil {
		return nil, err
	}

	var vtubers []VTuber
	if err := json.Unmarshal(data, &vtubers); err != nil {
		return nil, err
	}

	ds := &Dataset{
		vtubers: vtubers,
		byID:    make(map[string]*VTuber, len(vtubers)),
	}

	seen := make(map[string]bool)
	for i := range ds.vtubers {
		v := &ds.vtubers[i]
		ds.byID[v.ID] = v

		for _, tag := range v.Tags {
			tag = strings.TrimSpace(tag)
			if tag == "" || seen[tag] {
				continue
			}
			seen[tag] = true
			ds.tags = append(ds.tags, tag)
		}
	}

	return ds, nil
}

func (ds *Dataset) Len() int {
	return len(ds.vtubers)
}

func (ds *Dataset) ByID(id string) *VTuber {
	return ds.byID[id]
}

// Random returns a uniformly random entry. Previously used targets are
// not excluded.
func (ds *Dataset) Random() *VTuber {
	return &ds.vtubers[rand.Intn(len(ds.vtubers))]
}

// RandomName builds a display name by concatenating two random distinct
// tags from the vocabulary. Retries are bounded by the pool size, so a
// single-tag vocabulary just doubles up.
func (ds *Dataset) RandomName() string {
	first := ds.tags[rand.Intn(len(ds.tags))]
	second := first

	for i := 0; i < len(ds.tags); i++ {
		second = ds.tags[rand.Intn(len(ds.tags))]
		if second != first {
			break
		}
	}

	return first + second
}

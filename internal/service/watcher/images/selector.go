// Package images picks the venue map image that best illustrates an
// offer's location.
package images

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	applog "github.com/darkkaiser/resale-watcher/pkg/log"
)

const component = "watcher.images"

const (
	// floorImageName is the fixed file shown for floor standing offers.
	floorImageName = "pista.jpg"

	// premiumImageName is the fixed file shown for premium offers.
	premiumImageName = "golden.jpg"
)

// Selector maps an offer's type description and sector to an image inside
// a flat directory. The directory holds the two fixed category files plus
// any number of "<integer>.jpg" sector threshold files.
type Selector struct {
	dir string
}

// NewSelector builds a Selector over dir. An empty dir disables image
// selection entirely.
func NewSelector(dir string) *Selector {
	return &Selector{dir: dir}
}

// Select returns the path of the best-fit image and whether one was found.
//
// Category keywords in the type description win over the sector lookup:
// "pista"/"floor" pick the floor image and "gold"/"golden" the premium
// image, regardless of sector. Otherwise a numeric sector is matched
// against the threshold files: among those with an integer name not above
// the sector, the largest wins. A sector below every threshold, a
// non-numeric sector or a missing file yields no image.
func (s *Selector) Select(typeDescription, sector string) (string, bool) {
	if s.dir == "" {
		return "", false
	}

	desc := strings.ToLower(typeDescription)

	if strings.Contains(desc, "pista") || strings.Contains(desc, "floor") {
		return s.existing(floorImageName)
	}

	if strings.Contains(desc, "gold") {
		return s.existing(premiumImageName)
	}

	sectorValue, err := strconv.Atoi(sector)
	if err != nil {
		return "", false
	}

	return s.nearestBelow(sectorValue)
}

// existing returns the path of a fixed-name image if it is present. A
// category keyword matched but its file is gone, so the miss is surfaced.
func (s *Selector) existing(name string) (string, bool) {
	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"path":  path,
			"error": err.Error(),
		}).Warn("the category image is missing, the notification goes out without one")

		return "", false
	}
	return path, true
}

// nearestBelow scans the directory for "<integer>.jpg" files and picks the
// one with the largest integer not exceeding the sector value. The sector
// files mark "valid from this sector upward" thresholds.
func (s *Selector) nearestBelow(sector int) (string, bool) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"dir":   s.dir,
			"error": err.Error(),
		}).Warn("the image directory could not be read")

		return "", false
	}

	best := -1
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		base, found := strings.CutSuffix(name, ".jpg")
		if !found {
			continue
		}

		value, err := strconv.Atoi(base)
		if err != nil || value < 0 {
			continue
		}

		if value <= sector && value > best {
			best = value
		}
	}

	if best < 0 {
		return "", false
	}

	return filepath.Join(s.dir, strconv.Itoa(best)+".jpg"), true
}

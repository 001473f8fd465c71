// Package taxonomy holds the authoritative exercise reference data.
// The index is built once at startup and treated as immutable for the
// process lifetime, so concurrent reads need no locking.
package taxonomy

import (
	"errors"
	"fmt"
	"sort"

	"github.com/claude/repcoach/internal/models"
)

// ErrNotFound is returned when an exercise ID does not resolve.
var ErrNotFound = errors.New("exercise not found in taxonomy")

// Index is the in-memory exercise catalog with reverse indices by
// muscle group, equipment, and difficulty.
type Index struct {
	byID         map[string]*models.Exercise
	byMuscle     map[models.MuscleGroup][]*models.Exercise
	byEquipment  map[models.Equipment][]*models.Exercise
	byDifficulty map[models.Difficulty][]*models.Exercise
	ordered      []*models.Exercise // stable name order
	aliases      map[string]string  // normalized name/alias -> id
}

// NewIndex builds an Index from validated exercises. Duplicate IDs are
// rejected.
func NewIndex(exercises []models.Exercise) (*Index, error) {
	idx := &Index{
		byID:         make(map[string]*models.Exercise, len(exercises)),
		byMuscle:     make(map[models.MuscleGroup][]*models.Exercise),
		byEquipment:  make(map[models.Equipment][]*models.Exercise),
		byDifficulty: make(map[models.Difficulty][]*models.Exercise),
		aliases:      make(map[string]string),
	}

	for i := range exercises {
		ex := &exercises[i]
		if ex.ID == "" || ex.Name == "" {
			return nil, fmt.Errorf("exercise %d: id and name are required", i)
		}
		if _, dup := idx.byID[ex.ID]; dup {
			return nil, fmt.Errorf("duplicate exercise id %q", ex.ID)
		}
		idx.byID[ex.ID] = ex
		idx.ordered = append(idx.ordered, ex)

		for _, mg := range ex.PrimaryMuscles {
			idx.byMuscle[mg] = append(idx.byMuscle[mg], ex)
		}
		for _, eq := range ex.Equipment {
			idx.byEquipment[eq] = append(idx.byEquipment[eq], ex)
		}
		idx.byDifficulty[ex.Difficulty] = append(idx.byDifficulty[ex.Difficulty], ex)

		idx.aliases[normalizeName(ex.Name)] = ex.ID
		idx.aliases[normalizeName(ex.ID)] = ex.ID
		for _, a := range ex.Aliases {
			idx.aliases[normalizeName(a)] = ex.ID
		}
	}

	sort.Slice(idx.ordered, func(i, j int) bool {
		return idx.ordered[i].Name < idx.ordered[j].Name
	})

	return idx, nil
}

// Len returns the number of exercises in the catalog.
func (idx *Index) Len() int { return len(idx.ordered) }

// GetByID looks up a single exercise. Returns ErrNotFound if the ID
// does not resolve.
func (idx *Index) GetByID(id string) (*models.Exercise, error) {
	ex, ok := idx.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return ex, nil
}

// FilterCriteria narrows the catalog. Zero-value fields are ignored.
type FilterCriteria struct {
	Muscle     *models.MuscleGroup
	Equipment  []models.Equipment // exercises must be doable with only these
	Difficulty *models.Difficulty
	Mechanics  *models.Mechanics
	Tag        string
}

// Filter returns matching exercises in stable name order. Relevance
// ranking is the scorer's job; the taxonomy only guarantees a
// deterministic base order.
func (idx *Index) Filter(c FilterCriteria) []*models.Exercise {
	available := make(map[models.Equipment]bool, len(c.Equipment))
	for _, eq := range c.Equipment {
		available[eq] = true
	}

	var out []*models.Exercise
	for _, ex := range idx.ordered {
		if c.Muscle != nil && !hasMuscle(ex.PrimaryMuscles, *c.Muscle) && !hasMuscle(ex.SecondaryMuscles, *c.Muscle) {
			continue
		}
		if len(c.Equipment) > 0 && !ex.RequiresOnly(available) {
			continue
		}
		if c.Difficulty != nil && ex.Difficulty != *c.Difficulty {
			continue
		}
		if c.Mechanics != nil && ex.Mechanics != *c.Mechanics {
			continue
		}
		if c.Tag != "" && !ex.HasTag(c.Tag) {
			continue
		}
		out = append(out, ex)
	}
	return out
}

// All returns every exercise in stable name order. The returned slice
// must not be mutated.
func (idx *Index) All() []*models.Exercise {
	return idx.ordered
}

func hasMuscle(groups []models.MuscleGroup, mg models.MuscleGroup) bool {
	for _, g := range groups {
		if g == mg {
			return true
		}
	}
	return false
}

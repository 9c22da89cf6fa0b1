package schedule

import (
	"errors"
	"slices"
)

var (
	ErrDuplicateCourt   = errors.New("court already selected")
	ErrDuplicateTrainer = errors.New("trainer already selected")
	ErrCourtLimit       = errors.New("every selected court needs a trainer")
	ErrNotSelected      = errors.New("resource not selected")
)

// AddCourt appends a court. Once trainers are selected, the number of courts
// may not exceed the number of trainers.
func (p *ResourcePools) AddCourt(number int) error {
	if slices.Contains(p.Courts, number) {
		return ErrDuplicateCourt
	}
	if len(p.Trainers) > 0 && len(p.Courts) >= len(p.Trainers) {
		return ErrCourtLimit
	}
	p.Courts = append(p.Courts, number)
	return nil
}

func (p *ResourcePools) RemoveCourt(number int) error {
	i := slices.Index(p.Courts, number)
	if i < 0 {
		return ErrNotSelected
	}
	p.Courts = slices.Delete(p.Courts, i, i+1)
	return nil
}

func (p *ResourcePools) AddTrainer(t Trainer) error {
	if p.trainerIndex(t.ID) >= 0 {
		return ErrDuplicateTrainer
	}
	p.Trainers = append(p.Trainers, t)
	return nil
}

// RemoveTrainer drops a trainer and truncates the court list to the new
// trainer count.
func (p *ResourcePools) RemoveTrainer(id string) error {
	i := p.trainerIndex(id)
	if i < 0 {
		return ErrNotSelected
	}
	p.Trainers = slices.Delete(p.Trainers, i, i+1)
	if len(p.Courts) > len(p.Trainers) {
		p.Courts = p.Courts[:len(p.Trainers)]
	}
	return nil
}

// TrainerFor returns the trainer paired with the court at index i.
func (p ResourcePools) TrainerFor(i int) Trainer {
	return p.Trainers[i%len(p.Trainers)]
}

func (p ResourcePools) trainerIndex(id string) int {
	return slices.IndexFunc(p.Trainers, func(t Trainer) bool { return t.ID == id })
}

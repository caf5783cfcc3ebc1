package service

import (
	"context"
	"errors"
	"sync"

	"github.com/Skotchmaster/shop_admin/internal/models"
)

type sentEvent struct {
	Topic string
	Key   string
	Event map[string]any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []sentEvent
	err    error
}

func (f *fakePublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	m, _ := event.(map[string]any)
	f.events = append(f.events, sentEvent{Topic: topic, Key: key, Event: m})
	return nil
}

func (f *fakePublisher) last() sentEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.events) == 0 {
		return sentEvent{}
	}
	return f.events[len(f.events)-1]
}

type fakeIndex struct {
	indexed map[uint]string
	docs    map[uint]models.Product
	deleted []uint
	hits    []uint
	total   int64
	err     error
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{indexed: map[uint]string{}, docs: map[uint]models.Product{}}
}

func (f *fakeIndex) IndexProduct(_ context.Context, p *models.Product) error {
	f.indexed[p.ID] = p.Name
	f.docs[p.ID] = *p
	return nil
}

func (f *fakeIndex) DeleteProduct(_ context.Context, id uint) error {
	delete(f.indexed, id)
	delete(f.docs, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeIndex) Search(_ context.Context, _ string, _, _ int) (int64, []uint, error) {
	if f.err != nil {
		return 0, nil, f.err
	}
	return f.total, f.hits, nil
}

type fakeFiles struct {
	removed []string
}

func (f *fakeFiles) RemoveAll(names []string) error {
	f.removed = append(f.removed, names...)
	return nil
}

var errBoom = errors.New("boom")

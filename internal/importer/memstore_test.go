package importer

import (
	"context"

	"github.com/sells-group/credenciados/internal/provider"
)

// memStore is an in-memory provider.Store with injectable failures.
type memStore struct {
	records []provider.Record
	nextID  int64

	insertErr error
	updateErr error
	findErr   error
	countErr  error
	// findErrOn fails only lookups filtering on the given field.
	findErrOn map[provider.Field]error

	inserts int
	updates int
}

func newMemStore(seed ...provider.Record) *memStore {
	s := &memStore{}
	for _, r := range seed {
		s.nextID++
		if r.ID == 0 {
			r.ID = s.nextID
		}
		s.records = append(s.records, r)
	}
	return s
}

func (s *memStore) Get(_ context.Context, id int64) (*provider.Record, error) {
	for i := range s.records {
		if s.records[i].ID == id {
			r := s.records[i]
			return &r, nil
		}
	}
	return nil, nil
}

func (s *memStore) FindBy(_ context.Context, filters ...provider.Filter) ([]provider.Record, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	for _, f := range filters {
		if err := s.findErrOn[f.Field]; err != nil {
			return nil, err
		}
	}
	var out []provider.Record
	for _, r := range s.records {
		ok := true
		for _, f := range filters {
			v := fieldValue(&r, f.Field)
			if v == nil || *v != f.Value {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memStore) Insert(_ context.Context, r *provider.Record) (int64, error) {
	if s.insertErr != nil {
		return 0, s.insertErr
	}
	s.nextID++
	r.ID = s.nextID
	s.records = append(s.records, *r)
	s.inserts++
	return r.ID, nil
}

func (s *memStore) Update(_ context.Context, r *provider.Record) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	for i := range s.records {
		if s.records[i].ID == r.ID {
			s.records[i] = *r
			s.updates++
			return nil
		}
	}
	return nil
}

func (s *memStore) Count(_ context.Context) (int, error) {
	if s.countErr != nil {
		return 0, s.countErr
	}
	return len(s.records), nil
}

func (s *memStore) byID(id int64) provider.Record {
	r, _ := s.Get(context.Background(), id)
	if r == nil {
		return provider.Record{}
	}
	return *r
}

func fieldValue(r *provider.Record, f provider.Field) *string {
	switch f {
	case provider.FieldCode:
		return r.Code
	case provider.FieldName:
		return &r.Name
	case provider.FieldCRM:
		return r.CRM
	case provider.FieldPhone:
		return r.Phone
	case provider.FieldEmail:
		return r.Email
	case provider.FieldCity:
		return r.City
	}
	return nil
}

func strPtr(s string) *string { return &s }

func row(pos int, fields map[string]string) RawRow {
	return RawRow{Position: pos, Fields: fields}
}

// txMemStore is a memStore that also implements provider.Transactor.
type txMemStore struct {
	*memStore
	beginErr error
	txs      int
}

func (s *txMemStore) InTx(_ context.Context, fn func(provider.Store) error) error {
	if s.beginErr != nil {
		return s.beginErr
	}
	s.txs++
	return fn(s.memStore)
}

package core

import (
	"errors"
	"testing"
)

func TestValidateRecord(t *testing.T) {
	tests := []struct {
		name    string
		record  *VectorizedRecord
		wantErr error
	}{
		{
			name: "valid record",
			record: &VectorizedRecord{
				Id:       "task:1",
				Content:  "Finish lab report",
				Kind:     KindTask,
				Metadata: map[string]string{MetaOwnerID: "user-1"},
			},
			wantErr: nil,
		},
		{
			name: "valid record with empty embedding",
			record: &VectorizedRecord{
				Id:        "note:1",
				Content:   "Mitochondria are the powerhouse of the cell",
				Kind:      KindNote,
				Metadata:  map[string]string{MetaOwnerID: "user-1"},
				Embedding: nil,
			},
			wantErr: nil,
		},
		{
			name: "valid record with zero createdAt",
			record: &VectorizedRecord{
				Id:          "session:1",
				Content:     "Reviewed flashcards for 40 minutes",
				Kind:        KindStudySession,
				Metadata:    map[string]string{MetaOwnerID: "user-1"},
				CreatedAtMs: 0,
			},
			wantErr: nil,
		},
		{
			name:    "nil record",
			record:  nil,
			wantErr: ErrInvalidRecord,
		},
		{
			name: "empty id",
			record: &VectorizedRecord{
				Id:       "",
				Content:  "content",
				Kind:     KindNote,
				Metadata: map[string]string{MetaOwnerID: "user-1"},
			},
			wantErr: ErrEmptyID,
		},
		{
			name: "empty content",
			record: &VectorizedRecord{
				Id:       "note:2",
				Content:  "",
				Kind:     KindNote,
				Metadata: map[string]string{MetaOwnerID: "user-1"},
			},
			wantErr: ErrEmptyContent,
		},
		{
			name: "unknown kind",
			record: &VectorizedRecord{
				Id:       "x:1",
				Content:  "content",
				Kind:     Kind("reminder"),
				Metadata: map[string]string{MetaOwnerID: "user-1"},
			},
			wantErr: ErrUnknownKind,
		},
		{
			name: "missing owner",
			record: &VectorizedRecord{
				Id:      "note:3",
				Content: "content",
				Kind:    KindNote,
			},
			wantErr: ErrMissingOwner,
		},
		{
			name: "empty owner value",
			record: &VectorizedRecord{
				Id:       "note:4",
				Content:  "content",
				Kind:     KindNote,
				Metadata: map[string]string{MetaOwnerID: ""},
			},
			wantErr: ErrMissingOwner,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRecord(tt.record)

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateRecord() unexpected error: %v", err)
				}
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateRecord() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidRecord) {
				t.Errorf("ValidateRecord() error = %v, should wrap ErrInvalidRecord", err)
			}
		})
	}
}

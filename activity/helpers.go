package activity

import (
	"strings"

	"github.com/goliatone/go-auth"
	"github.com/goliatone/go-workspaces/pkg/authctx"
	"github.com/goliatone/go-workspaces/pkg/types"
)

// RecordOption mutates the ActivityRecord produced by BuildRecordFromActor.
type RecordOption func(*types.ActivityRecord)

// WithChannel sets the channel used for downstream filtering.
func WithChannel(channel string) RecordOption {
	return func(record *types.ActivityRecord) {
		record.Channel = strings.TrimSpace(channel)
	}
}

// WithWorkspace attaches the record to a workspace feed.
func WithWorkspace(workspaceID int64) RecordOption {
	return func(record *types.ActivityRecord) {
		record.WorkspaceID = workspaceID
	}
}

// BuildRecordFromActor constructs an ActivityRecord from the actor stored by
// go-auth middleware plus verb and object details. Metadata is copied.
func BuildRecordFromActor(actor *auth.ActorContext, verb, objectType, objectID string, metadata map[string]any, opts ...RecordOption) (types.ActivityRecord, error) {
	ref, err := authctx.ActorRefFromActorContext(actor)
	if err != nil {
		return types.ActivityRecord{}, err
	}

	record := types.ActivityRecord{
		ActorID:    ref.ID,
		Verb:       strings.TrimSpace(verb),
		ObjectType: strings.TrimSpace(objectType),
		ObjectID:   strings.TrimSpace(objectID),
		Data:       cloneMap(metadata),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&record)
		}
	}
	return record, nil
}

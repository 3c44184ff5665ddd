package service

import (
	"context"
	"errors"

	"github.com/mzeile/inkroom/models"
	"github.com/mzeile/inkroom/pubsub"
	"github.com/mzeile/inkroom/store"
)

// AppendStroke validates and normalizes a stroke, appends it to the room's
// history and echoes the normalized form to the whole room, sender included.
// Clients reconcile their locally drawn stroke against the echo by id.
func (s *Service) AppendStroke(ctx context.Context, code string, in StrokeInput) (models.Stroke, error) {
	stroke, err := normalizeStroke(in)
	if err != nil {
		return models.Stroke{}, err
	}

	if err := s.Store.AppendStroke(code, stroke); err != nil {
		if errors.Is(err, store.ErrRoomNotFound) {
			return models.Stroke{}, ErrRoomNotFound
		}
		return models.Stroke{}, err
	}

	msg, err := marshalEvent(EventStroke, stroke)
	if err != nil {
		return models.Stroke{}, err
	}
	if err := s.Broker.Publish(ctx, pubsub.RoomTopic(code), msg); err != nil {
		return models.Stroke{}, err
	}
	return stroke, nil
}

// UndoStroke removes the stroke from history and tells every participant to
// drop it locally. The broadcast goes out even when the id was not found;
// removal on the clients is idempotent.
func (s *Service) UndoStroke(ctx context.Context, code, strokeID string) error {
	if _, err := s.Store.RemoveStroke(code, strokeID); err != nil {
		if errors.Is(err, store.ErrRoomNotFound) {
			return ErrRoomNotFound
		}
		return err
	}

	msg, err := marshalEvent(EventUndo, UndoData{StrokeID: strokeID})
	if err != nil {
		return err
	}
	return s.Broker.Publish(ctx, pubsub.RoomTopic(code), msg)
}

// SaveSnapshot stores a compacted canvas state. Last writer wins; there is no
// merging.
func (s *Service) SaveSnapshot(ctx context.Context, code, raw string) error {
	snap, err := parseSnapshot(raw)
	if err != nil {
		return err
	}

	if err := s.Store.SaveSnapshot(code, snap); err != nil {
		if errors.Is(err, store.ErrRoomNotFound) {
			return ErrRoomNotFound
		}
		return err
	}
	return nil
}

// RecoveryEvent builds the unicast recovery payload for a late joiner or an
// explicit snapshot request: the stored snapshot when present, otherwise the
// raw history log, otherwise nothing (nil bytes, nil error). A snapshot and
// the history are never both sent.
func (s *Service) RecoveryEvent(code string) ([]byte, error) {
	snap, history, err := s.Store.RecoveryState(code)
	if err != nil {
		if errors.Is(err, store.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	if !snap.IsZero() {
		return marshalEvent(EventSnapshot, string(snap.Data))
	}
	if len(history) > 0 {
		return marshalEvent(EventHistory, history)
	}
	return nil, nil
}

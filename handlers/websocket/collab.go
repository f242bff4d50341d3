package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"docsync-server/collab"
	"docsync-server/core"

	"github.com/sirupsen/logrus"
	"github.com/zishang520/engine.io/v2/types"
	socketio "github.com/zishang520/socket.io/v2/socket"
)

// Client-to-server event names; the server-to-client counterparts live in
// the collab package. sync-error reports rejected subscribes and failed
// saves back to the offending client.
const (
	eventGetDocument  = "get-document"
	eventSendChanges  = "send-changes"
	eventSaveDocument = "save-document"
	eventSyncError    = "sync-error"
)

// SetupSocketIO wires the socket.io event channel to the sync service. One
// Session is allocated per connection; every event on the connection runs
// against that session.
func SetupSocketIO(service *collab.Service, corsOrigin string) *socketio.Server {
	opts := socketio.DefaultServerOptions()
	opts.SetMaxHttpBufferSize(5000000)
	opts.SetPath("/socket.io")
	opts.SetAllowEIO3(true)
	opts.SetCors(&types.Cors{
		Origin:      []any{corsOrigin},
		Credentials: true,
	})
	srv := socketio.NewServer(nil, opts)

	//nolint:errcheck // Socket.IO event handlers do not return useful errors
	srv.On("connection", func(clients ...any) {
		socket, ok := clients[0].(*socketio.Socket)
		if !ok {
			return
		}

		sess := service.Connect(func(event string, payload any) {
			_ = socket.Emit(event, payload)
		})

		//nolint:errcheck // Socket.IO event handlers do not return useful errors
		socket.On(eventGetDocument, func(datas ...any) {
			documentID, ok := firstString(datas)
			if !ok || documentID == "" {
				emitSyncError(socket, fmt.Errorf("document id is required"))
				return
			}

			if err := service.Subscribe(context.Background(), sess, documentID); err != nil {
				emitSyncError(socket, err)
			}
		})

		//nolint:errcheck // Socket.IO event handlers do not return useful errors
		socket.On(eventSendChanges, func(datas ...any) {
			state, err := documentState(datas)
			if err != nil {
				logrus.WithField("connection_id", sess.ID()).WithError(err).
					Debug("Dropping malformed send-changes payload")
				return
			}

			// No response channel exists for edits; violations are dropped.
			if err := service.ApplyEdit(sess, state); err != nil {
				logrus.WithField("connection_id", sess.ID()).WithError(err).
					Debug("Dropping edit from unsubscribed session")
			}
		})

		//nolint:errcheck // Socket.IO event handlers do not return useful errors
		socket.On(eventSaveDocument, func(datas ...any) {
			state, err := documentState(datas)
			if err != nil {
				emitSyncError(socket, err)
				return
			}

			if err := service.Save(context.Background(), sess, state); err != nil {
				if !errors.Is(err, collab.ErrNotSubscribed) {
					emitSyncError(socket, err)
				}
			}
		})

		socket.On("disconnect", func(datas ...any) {
			service.Disconnect(context.Background(), sess)
		})
	})

	return srv
}

func firstString(datas []any) (string, bool) {
	if len(datas) == 0 {
		return "", false
	}
	s, ok := datas[0].(string)
	return s, ok
}

// documentState converts the first event argument into the opaque state
// blob. Socket.IO hands decoded JSON values to handlers; re-encoding them
// yields the canonical bytes the core compares and stores.
func documentState(datas []any) (core.DocumentState, error) {
	if len(datas) == 0 || datas[0] == nil {
		return nil, fmt.Errorf("document state is required")
	}

	switch data := datas[0].(type) {
	case []byte:
		if !json.Valid(data) {
			return nil, fmt.Errorf("document state is not valid JSON")
		}
		return core.DocumentState(data), nil
	case string:
		if !json.Valid([]byte(data)) {
			return nil, fmt.Errorf("document state is not valid JSON")
		}
		return core.DocumentState(data), nil
	default:
		encoded, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("encode document state: %w", err)
		}
		return core.DocumentState(encoded), nil
	}
}

func emitSyncError(socket *socketio.Socket, err error) {
	_ = socket.Emit(eventSyncError, map[string]any{"message": err.Error()})
}

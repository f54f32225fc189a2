package centerd

import (
	"context"
	"encoding/json"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/GoSim-25-26J-441/optimization-center/internal/center"
	"github.com/GoSim-25-26J-441/optimization-center/internal/history"
	"github.com/GoSim-25-26J-441/optimization-center/pkg/config"
	"github.com/GoSim-25-26J-441/optimization-center/pkg/logger"
	"github.com/GoSim-25-26J-441/optimization-center/pkg/models"
)

// CenterGRPCServer implements OptimizationCenterServer on a SessionStore.
type CenterGRPCServer struct {
	store   *SessionStore
	presets []config.Preset
}

// NewCenterGRPCServer creates a new CenterGRPCServer backed by store.
func NewCenterGRPCServer(store *SessionStore, presets []config.Preset) *CenterGRPCServer {
	return &CenterGRPCServer{store: store, presets: presets}
}

func (s *CenterGRPCServer) CreateSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sess, err := s.store.Create(stringField(req, "session_id"))
	if err != nil {
		return nil, grpcError(err)
	}
	return toStruct(map[string]any{"session": sess.Center.Snapshot(center.DefaultTopN)})
}

func (s *CenterGRPCServer) DeleteSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := stringField(req, "session_id")
	if err := s.store.Delete(id); err != nil {
		return nil, grpcError(err)
	}
	return toStruct(map[string]any{"deleted": id})
}

func (s *CenterGRPCServer) UpdateParams(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sess, err := s.session(req)
	if err != nil {
		return nil, err
	}

	var update ParamsUpdate
	if err := fromStruct(req, &update); err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid params: "+err.Error())
	}
	store := sess.Center.Params()
	if err := applyParams(store, s.presets, update); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error()+": "+update.Preset)
	}
	if boolField(req, "auto_balance") {
		store.AutoBalance()
	}
	return toStruct(paramsView(store, sess.Center.State() == models.RunStateRunning))
}

func (s *CenterGRPCServer) StartRun(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sess, err := s.session(req)
	if err != nil {
		return nil, err
	}
	runID, err := sess.Start()
	if err != nil {
		return nil, grpcError(err)
	}
	logger.Info("run started (gRPC)", "session_id", sess.ID, "run_id", runID)
	return toStruct(map[string]any{
		"run_id":  runID,
		"session": sess.Center.Snapshot(center.DefaultTopN),
	})
}

func (s *CenterGRPCServer) ResetRun(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sess, err := s.session(req)
	if err != nil {
		return nil, err
	}
	sess.Reset()
	return toStruct(map[string]any{"session": sess.Center.Snapshot(center.DefaultTopN)})
}

func (s *CenterGRPCServer) GetSnapshot(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sess, err := s.session(req)
	if err != nil {
		return nil, err
	}
	topN := center.DefaultTopN
	if v, ok := numberField(req, "top"); ok {
		topN = int(v)
	}
	return toStruct(map[string]any{
		"session": sess.Center.Snapshot(topN),
		"routes":  sess.View.Render(),
	})
}

func (s *CenterGRPCServer) GetResult(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sess, err := s.session(req)
	if err != nil {
		return nil, err
	}
	result, err := sess.Center.Result()
	if err != nil {
		return nil, grpcError(err)
	}
	body := map[string]any{"result": result}
	if ev, ok := sess.Center.LastCompletion(); ok {
		body["completion"] = ev
	}
	return toStruct(body)
}

// WatchRun streams a snapshot on every tick until the run completes, the
// session is deleted or the client goes away.
func (s *CenterGRPCServer) WatchRun(req *structpb.Struct, stream WatchRunServer) error {
	sess, err := s.session(req)
	if err != nil {
		return err
	}
	topN := center.DefaultTopN
	if v, ok := numberField(req, "top"); ok {
		topN = int(v)
	}

	feed := newSnapshotFeed(sess.Center, topN)
	defer feed.Close()

	send := func(snap center.Snapshot) error {
		msg, err := toStruct(map[string]any{"session": snap})
		if err != nil {
			return err
		}
		return stream.Send(msg)
	}

	snap := sess.Center.Snapshot(topN)
	if err := send(snap); err != nil {
		return err
	}
	if isTerminal(snap) {
		return nil
	}

	for {
		select {
		case <-stream.Context().Done():
			return stream.Context().Err()
		case <-sess.Done():
			return status.Error(codes.NotFound, "session deleted")
		case <-feed.Ready():
			snap, ok := feed.Next()
			if !ok {
				continue
			}
			if err := send(snap); err != nil {
				return err
			}
			if isTerminal(snap) {
				return nil
			}
		}
	}
}

func (s *CenterGRPCServer) session(req *structpb.Struct) (*Session, error) {
	sess, err := s.store.Get(stringField(req, "session_id"))
	if err != nil {
		return nil, grpcError(err)
	}
	return sess, nil
}

// grpcError maps domain errors to gRPC status codes
func grpcError(err error) error {
	switch {
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, history.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, ErrSessionIDMissing):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, ErrSessionExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, center.ErrRunInProgress),
		errors.Is(err, center.ErrUnbalancedWeights),
		errors.Is(err, center.ErrNotMounted),
		errors.Is(err, center.ErrNoResult):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// toStruct converts v to a Struct through its JSON encoding
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to encode response: "+err.Error())
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, status.Error(codes.Internal, "failed to encode response: "+err.Error())
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to encode response: "+err.Error())
	}
	return out, nil
}

// fromStruct decodes s into v through its JSON encoding
func fromStruct(s *structpb.Struct, v any) error {
	if s == nil {
		return nil
	}
	data, err := json.Marshal(s.AsMap())
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func stringField(s *structpb.Struct, name string) string {
	if s == nil {
		return ""
	}
	return s.GetFields()[name].GetStringValue()
}

func numberField(s *structpb.Struct, name string) (float64, bool) {
	if s == nil {
		return 0, false
	}
	v, ok := s.GetFields()[name]
	if !ok {
		return 0, false
	}
	if _, isNumber := v.GetKind().(*structpb.Value_NumberValue); !isNumber {
		return 0, false
	}
	return v.GetNumberValue(), true
}

func boolField(s *structpb.Struct, name string) bool {
	if s == nil {
		return false
	}
	return s.GetFields()[name].GetBoolValue()
}

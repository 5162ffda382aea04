package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"

	"github.com/duelcraft/battle-server-go/internal/game"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

// ErrMalformedRequest is returned for payloads the dispatcher cannot decode.
var ErrMalformedRequest = errors.New("malformed request")

// Actions is the battle engine surface the dispatcher drives.
type Actions interface {
	DeployUnit(ctx context.Context, sessionID string, cardID int) error
	AttackUnit(ctx context.Context, sessionID string, attackerIndex, targetIndex int) error
	AttackMainCharacter(ctx context.Context, sessionID string, attackerIndex int) (bool, error)
	EndTurn(ctx context.Context, sessionID string) error
	Mulligan(ctx context.Context, sessionID string, cardIDs []int) ([]int, error)
	UseUnitSkill(ctx context.Context, sessionID string, unitIndex, skillIndex, targetIndex int) error
	UseHandCard(ctx context.Context, sessionID string, cardID, targetIndex int) ([]int, error)
}

// Dispatcher routes decoded protocol requests to the engine.
type Dispatcher struct {
	actions Actions
	logger  *zap.Logger
}

// NewDispatcher creates a protocol dispatcher.
func NewDispatcher(actions Actions, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{actions: actions, logger: logger}
}

// Dispatch decodes one raw JSON request, runs it and returns the response
// together with the session id the request carried. Failure details are
// only logged; the client sees is_success=false.
func (d *Dispatcher) Dispatch(ctx context.Context, raw []byte) (Response, string) {
	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		d.logger.Warn("undecodable request", zap.Error(err))
		return Response{}, ""
	}

	var env envelope
	if err := decode(payload, &env); err != nil {
		d.logger.Warn("malformed request envelope", zap.Error(err))
		return Response{}, ""
	}

	resp, err := d.handle(ctx, env, payload)
	resp.Protocol = env.Protocol
	resp.IsSuccess = err == nil
	if err != nil {
		d.logger.Info("request refused",
			zap.String("protocol", env.Protocol.String()),
			zap.String("category", category(err)),
			zap.Error(err),
		)
	}
	return resp, env.SessionID
}

func (d *Dispatcher) handle(ctx context.Context, env envelope, payload map[string]interface{}) (Response, error) {
	switch env.Protocol {
	case ProtocolDeployUnit:
		var req deployUnitRequest
		if err := decode(payload, &req); err != nil {
			return Response{}, err
		}
		return Response{}, d.actions.DeployUnit(ctx, env.SessionID, req.CardID)

	case ProtocolAttackUnit:
		var req attackUnitRequest
		if err := decode(payload, &req); err != nil {
			return Response{}, err
		}
		return Response{}, d.actions.AttackUnit(ctx, env.SessionID, req.AttackerIndex, req.TargetIndex)

	case ProtocolAttackMainCharacter:
		var req attackMainCharacterRequest
		if err := decode(payload, &req); err != nil {
			return Response{}, err
		}
		lethal, err := d.actions.AttackMainCharacter(ctx, env.SessionID, req.AttackerIndex)
		return Response{Lethal: lethal}, err

	case ProtocolEndTurn:
		return Response{}, d.actions.EndTurn(ctx, env.SessionID)

	case ProtocolMulligan:
		var req mulliganRequest
		if err := decode(payload, &req); err != nil {
			return Response{}, err
		}
		drawn, err := d.actions.Mulligan(ctx, env.SessionID, req.ReplaceCardIDs)
		return Response{DrawnCards: drawn}, err

	case ProtocolUseUnitSkill:
		req := useUnitSkillRequest{TargetIndex: -1}
		if err := decode(payload, &req); err != nil {
			return Response{}, err
		}
		return Response{}, d.actions.UseUnitSkill(ctx, env.SessionID, req.UnitIndex, req.SkillIndex, req.TargetIndex)

	case ProtocolUseHandCard:
		req := useHandCardRequest{TargetIndex: -1}
		if err := decode(payload, &req); err != nil {
			return Response{}, err
		}
		found, err := d.actions.UseHandCard(ctx, env.SessionID, req.CardID, req.TargetIndex)
		return Response{FoundCards: found}, err

	default:
		return Response{}, fmt.Errorf("%w: unknown protocol %d", game.ErrProtocolViolation, int(env.Protocol))
	}
}

// decode maps a loosely typed JSON object onto a request struct. Clients
// may send numbers as strings.
func decode(payload map[string]interface{}, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       stringToIntHookFunc(),
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(payload); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}
	return nil
}

func stringToIntHookFunc() mapstructure.DecodeHookFunc {
	return func(from reflect.Kind, to reflect.Kind, data interface{}) (interface{}, error) {
		if from == reflect.String && to == reflect.Int {
			return strconv.Atoi(data.(string))
		}
		return data, nil
	}
}

// category names the failure class for logs.
func category(err error) string {
	switch {
	case errors.Is(err, game.ErrAuthentication):
		return "authentication"
	case errors.Is(err, game.ErrProtocolViolation), errors.Is(err, ErrMalformedRequest):
		return "protocol"
	case errors.Is(err, game.ErrRuleViolation):
		return "rule"
	case errors.Is(err, game.ErrNotFound):
		return "not_found"
	default:
		return "internal"
	}
}

package entitlement

import (
	"github.com/dmitrymomot/membership/handler"
	"github.com/dmitrymomot/membership/svc/membership"
)

type empty struct{}

type featureRequest struct {
	Feature membership.Feature `path:"feature"`
}

type creditRequest struct {
	Kind membership.CreditKind `path:"kind"`
}

type addCreditsRequest struct {
	Kind   membership.CreditKind `path:"kind" json:"-"`
	Amount int64                 `json:"amount"`
}

type upgradeRequest struct {
	Tier membership.Tier `json:"tier"`
}

func (m *Module) get(ctx handler.Context, _ empty) handler.Response {
	return respond(m.svc.Get(ctx, ctx.UserID()))
}

func (m *Module) useDaily(ctx handler.Context, req featureRequest) handler.Response {
	return respond(m.svc.UseDaily(ctx, ctx.UserID(), req.Feature))
}

func (m *Module) useCredit(ctx handler.Context, req creditRequest) handler.Response {
	return respond(m.svc.UseCredit(ctx, ctx.UserID(), req.Kind))
}

func (m *Module) addCredits(ctx handler.Context, req addCreditsRequest) handler.Response {
	return respond(m.svc.AddCredits(ctx, ctx.UserID(), req.Kind, req.Amount))
}

func (m *Module) useBoost(ctx handler.Context, _ empty) handler.Response {
	return respond(m.svc.UseBoost(ctx, ctx.UserID()))
}

func (m *Module) useSuperLike(ctx handler.Context, _ empty) handler.Response {
	return respond(m.svc.UseSuperLike(ctx, ctx.UserID()))
}

func (m *Module) upgrade(ctx handler.Context, req upgradeRequest) handler.Response {
	if req.Tier == "" {
		return handler.JSONError(handler.ErrBadRequest.WithMessage(`body must be {"tier": "<name>"}`))
	}
	return respond(m.svc.UpgradeTier(ctx, ctx.UserID(), req.Tier))
}

func (m *Module) cancel(ctx handler.Context, _ empty) handler.Response {
	return respond(m.svc.Cancel(ctx, ctx.UserID()))
}

type tiersResponse struct {
	Tiers []membership.TierDefinition `json:"tiers"`
}

func (m *Module) tiers(_ handler.Context, _ empty) handler.Response {
	return handler.JSON(tiersResponse{Tiers: m.svc.Catalog().Tiers()})
}

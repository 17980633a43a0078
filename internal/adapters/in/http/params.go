package http

import (
	"fieldops/internal/core/domain/model/kernel"
	"fieldops/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
)

func orderIDParam(ctx echo.Context) (kernel.UUID, error) {
	var orderID uuid.UUID
	err := runtime.BindStyledParameterWithOptions("simple", "orderId", ctx.Param("orderId"), &orderID,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return kernel.UUID{}, errs.NewValueIsInvalidErrorWithCause("orderId", err)
	}
	if orderID == uuid.Nil {
		return kernel.UUID{}, errs.NewValueIsRequiredError("orderId")
	}
	return kernel.UUIDFromBytes(orderID[:])
}

func agentIDBody(ctx echo.Context) (kernel.UUID, error) {
	var body AgentAction
	if err := ctx.Bind(&body); err != nil {
		return kernel.UUID{}, errs.NewValueIsInvalidErrorWithCause("body", err)
	}
	if body.AgentId == uuid.Nil {
		return kernel.UUID{}, errs.NewValueIsRequiredError("agentId")
	}
	return kernel.UUIDFromBytes(body.AgentId[:])
}

func parseKinds(values []string) ([]kernel.ServiceKind, error) {
	kinds := make([]kernel.ServiceKind, 0, len(values))
	for _, v := range values {
		kind, err := kernel.ParseServiceKind(v)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}

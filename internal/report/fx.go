package report

import (
	"github.com/smallbiznis/crm/internal/report/render"
	"github.com/smallbiznis/crm/internal/report/repository"
	"github.com/smallbiznis/crm/internal/report/service"
	"go.uber.org/fx"
)

var Module = fx.Module("report",
	fx.Provide(
		repository.Provide,
		render.NewPDFRenderer,
		service.New,
	),
)

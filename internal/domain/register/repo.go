package register

import (
	"context"

	"github.com/labtrack/labtrack/internal/domain/intake"
	"github.com/labtrack/labtrack/internal/lab"
)

type Repository interface {
	Get(ctx context.Context, dept lab.DepartmentConfig, regNo string) (*Record, error)
	List(ctx context.Context, dept lab.DepartmentConfig) ([]*Record, error)
	MarkScanned(ctx context.Context, dept lab.DepartmentConfig, regNo string, reg *intake.Registration) error
	SaveResults(ctx context.Context, dept lab.DepartmentConfig, regNo string, results map[string]any, savedBy string) error
	MarkValidated(ctx context.Context, dept lab.DepartmentConfig, regNo string, validatedBy string) error
}

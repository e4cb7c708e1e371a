package server

import (
	"context"

	"github.com/gin-gonic/gin"
	buildingdomain "github.com/smallbiznis/storagedesk/internal/building/domain"
	"github.com/smallbiznis/storagedesk/internal/config"
	customerdomain "github.com/smallbiznis/storagedesk/internal/customer/domain"
	paymentdomain "github.com/smallbiznis/storagedesk/internal/payment/domain"
	"github.com/smallbiznis/storagedesk/internal/providers/pdf"
	"github.com/smallbiznis/storagedesk/internal/ratelimit"
	rentaldomain "github.com/smallbiznis/storagedesk/internal/rental/domain"
	reportdomain "github.com/smallbiznis/storagedesk/internal/report/domain"
	unitdomain "github.com/smallbiznis/storagedesk/internal/unit/domain"
	"go.uber.org/zap"
)

type fakeBuildingService struct {
	buildingdomain.Service
	created buildingdomain.CreateBuildingRequest
	err     error
}

func (f *fakeBuildingService) Create(ctx context.Context, req buildingdomain.CreateBuildingRequest) (buildingdomain.Building, error) {
	f.created = req
	if f.err != nil {
		return buildingdomain.Building{}, f.err
	}
	return buildingdomain.Building{ID: 10, Name: req.Name, Address: req.Address, Floors: req.Floors}, nil
}

func (f *fakeBuildingService) Delete(ctx context.Context, id string) error {
	return f.err
}

type fakeUnitService struct {
	unitdomain.Service
	statusReq unitdomain.ChangeStatusRequest
	err       error
}

func (f *fakeUnitService) ChangeStatus(ctx context.Context, req unitdomain.ChangeStatusRequest) (unitdomain.Unit, error) {
	f.statusReq = req
	if f.err != nil {
		return unitdomain.Unit{}, f.err
	}
	return unitdomain.Unit{ID: 20, Status: unitdomain.UnitStatus(req.Status)}, nil
}

func (f *fakeUnitService) Delete(ctx context.Context, id string) error {
	return f.err
}

type fakeCustomerService struct {
	customerdomain.Service
	err error
}

func (f *fakeCustomerService) GetByID(ctx context.Context, req customerdomain.GetCustomerRequest) (customerdomain.Customer, error) {
	if f.err != nil {
		return customerdomain.Customer{}, f.err
	}
	return customerdomain.Customer{Name: "Dana"}, nil
}

type fakeRentalService struct {
	rentaldomain.Service
	created    rentaldomain.CreateRentalRequest
	createErr  error
	statement  rentaldomain.Statement
	reconciled int
	completed  *rentaldomain.CompleteRentalRequest
}

func (f *fakeRentalService) Create(ctx context.Context, req rentaldomain.CreateRentalRequest) (rentaldomain.Rental, error) {
	f.created = req
	if f.createErr != nil {
		return rentaldomain.Rental{}, f.createErr
	}
	return rentaldomain.Rental{ID: 30, StartDate: req.StartDate, EndDate: req.EndDate, Status: rentaldomain.RentalStatusActive}, nil
}

func (f *fakeRentalService) Complete(ctx context.Context, req rentaldomain.CompleteRentalRequest) (rentaldomain.Rental, error) {
	f.completed = &req
	return rentaldomain.Rental{ID: 30, EndDate: req.EndDate, Status: rentaldomain.RentalStatusCompleted}, nil
}

func (f *fakeRentalService) Reconcile(ctx context.Context) (int, error) {
	return f.reconciled, nil
}

func (f *fakeRentalService) Statement(ctx context.Context, id string) (rentaldomain.Statement, error) {
	return f.statement, nil
}

type fakePaymentService struct {
	paymentdomain.Service
	listed  paymentdomain.ListPaymentRequest
	listErr error
}

func (f *fakePaymentService) List(ctx context.Context, req paymentdomain.ListPaymentRequest) (paymentdomain.ListPaymentResponse, error) {
	f.listed = req
	return paymentdomain.ListPaymentResponse{}, f.listErr
}

type fakeReportService struct {
	reportdomain.Service
}

type testServer struct {
	*Server
	buildings *fakeBuildingService
	units     *fakeUnitService
	customers *fakeCustomerService
	rentals   *fakeRentalService
	payments  *fakePaymentService
}

func newTestServer(cfg config.Config, ledgerCfg *config.LedgerConfigHolder) *testServer {
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	ts := &testServer{
		buildings: &fakeBuildingService{},
		units:     &fakeUnitService{},
		customers: &fakeCustomerService{},
		rentals:   &fakeRentalService{},
		payments:  &fakePaymentService{},
	}
	if cfg.AppName == "" {
		cfg.AppName = "storagedesk"
	}
	ts.Server = NewServer(ServerParams{
		Gin:         engine,
		Cfg:         cfg,
		LedgerCfg:   ledgerCfg,
		Log:         zap.NewNop(),
		BuildingSvc: ts.buildings,
		UnitSvc:     ts.units,
		CustomerSvc: ts.customers,
		RentalSvc:   ts.rentals,
		PaymentSvc:  ts.payments,
		ReportSvc:   &fakeReportService{},
		PDFProvider: pdf.New(),
	})
	return ts
}

type fakeLimiter struct {
	result *ratelimit.RateLimitResult
	err    error
	keys   []string
}

func (f *fakeLimiter) Enabled() bool { return true }

func (f *fakeLimiter) Allow(ctx context.Context, client string) (*ratelimit.RateLimitResult, error) {
	f.keys = append(f.keys, client)
	return f.result, f.err
}

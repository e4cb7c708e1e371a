package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	rentaldomain "github.com/smallbiznis/storagedesk/internal/rental/domain"
)

const dateLayout = "Jan 2, 2006"

type StatementData struct {
	FacilityName    string
	StatementNumber string
	IssueDate       string
	Period          string
	Status          string

	CustomerName string
	UnitLabel    string
	BuildingName string

	Lines []StatementLine

	TotalAmount string
	TotalPaid   string
	Balance     string
}

type StatementLine struct {
	Date        string
	Description string
	Method      string
	Amount      string
}

// NewStatementData formats a rental statement for rendering.
func NewStatementData(facility string, st rentaldomain.Statement) StatementData {
	period := st.Rental.StartDate.Format(dateLayout) + " - open ended"
	if st.Rental.EndDate != nil {
		period = st.Rental.StartDate.Format(dateLayout) + " - " + st.Rental.EndDate.Format(dateLayout)
	}

	lines := make([]StatementLine, 0, len(st.Payments))
	for _, payment := range st.Payments {
		description := "Payment"
		if payment.IsLate {
			description = "Late payment"
		}
		lines = append(lines, StatementLine{
			Date:        payment.Date.Format(dateLayout),
			Description: description,
			Method:      string(payment.Method),
			Amount:      money(payment.Amount.StringFixed(2)),
		})
	}

	return StatementData{
		FacilityName:    facility,
		StatementNumber: st.Rental.ID.String(),
		IssueDate:       st.IssuedAt.Format(dateLayout),
		Period:          period,
		Status:          string(st.Rental.Status),
		CustomerName:    st.Rental.CustomerName,
		UnitLabel:       st.Rental.UnitNumber,
		BuildingName:    st.Rental.BuildingName,
		Lines:           lines,
		TotalAmount:     money(st.Rental.TotalAmount.StringFixed(2)),
		TotalPaid:       money(st.TotalPaid.StringFixed(2)),
		Balance:         money(st.Balance.StringFixed(2)),
	}
}

func money(amount string) string {
	return "$" + amount
}

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GenerateStatement(ctx context.Context, data StatementData) (io.Reader, error) {
	if data.StatementNumber == "" {
		return nil, fmt.Errorf("statement number is required")
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		WithCreationDate(time.Now().UTC()).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(8, data.FacilityName, props.Text{
			Size:  16,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		text.NewCol(4, "Rental statement", props.Text{
			Size:  12,
			Style: fontstyle.Bold,
			Align: align.Right,
		}),
	)

	m.AddRow(22,
		col.New(6).Add(
			text.New("Statement: "+data.StatementNumber, props.Text{Top: 0, Size: 9}),
			text.New("Issued: "+data.IssueDate, props.Text{Top: 5, Size: 9}),
			text.New("Rental period: "+data.Period, props.Text{Top: 10, Size: 9}),
			text.New("Status: "+data.Status, props.Text{Top: 15, Size: 9}),
		),
		col.New(6).Add(
			text.New("Customer", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
			text.New(data.CustomerName, props.Text{Top: 5, Size: 9, Align: align.Right}),
			text.New("Unit "+data.UnitLabel, props.Text{Top: 10, Size: 9, Align: align.Right}),
			text.New(data.BuildingName, props.Text{Top: 15, Size: 9, Align: align.Right}),
		),
	)

	m.AddRow(10,
		text.NewCol(3, "Date", props.Text{Style: fontstyle.Bold, Size: 9, Top: 3}),
		text.NewCol(4, "Description", props.Text{Style: fontstyle.Bold, Size: 9, Top: 3}),
		text.NewCol(3, "Method", props.Text{Style: fontstyle.Bold, Size: 9, Top: 3}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Top: 3, Align: align.Right}),
	)
	m.AddRow(2, line.NewCol(12))

	if len(data.Lines) == 0 {
		m.AddRow(8, text.NewCol(12, "No payments recorded.", props.Text{Size: 9, Top: 2}))
	}
	for _, item := range data.Lines {
		m.AddRow(8,
			text.NewCol(3, item.Date, props.Text{Size: 9, Top: 2}),
			text.NewCol(4, item.Description, props.Text{Size: 9, Top: 2}),
			text.NewCol(3, item.Method, props.Text{Size: 9, Top: 2}),
			text.NewCol(2, item.Amount, props.Text{Size: 9, Top: 2, Align: align.Right}),
		)
	}

	m.AddRow(2, line.NewCol(12))
	m.AddRow(8,
		col.New(8),
		text.NewCol(2, "Rental total", props.Text{Size: 9, Top: 2}),
		text.NewCol(2, data.TotalAmount, props.Text{Size: 9, Top: 2, Align: align.Right}),
	)
	m.AddRow(8,
		col.New(8),
		text.NewCol(2, "Paid", props.Text{Size: 9, Top: 2}),
		text.NewCol(2, data.TotalPaid, props.Text{Size: 9, Top: 2, Align: align.Right}),
	)
	m.AddRow(8,
		col.New(8),
		text.NewCol(2, "Balance", props.Text{Style: fontstyle.Bold, Size: 9, Top: 2}),
		text.NewCol(2, data.Balance, props.Text{Style: fontstyle.Bold, Size: 9, Top: 2, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}

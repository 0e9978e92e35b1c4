package excel

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/crelogic/lease-abstractor/internal/core/domain"
	"github.com/crelogic/lease-abstractor/internal/core/ports"
)

const (
	headerFillColor = "1F4E79"
	labelFillColor  = "D9E2F3"
	isoDateLayout   = "2006-01-02"
)

// abstractSection groups terms the way abstractors read a lease.
type abstractSection struct {
	title string
	terms []domain.TermName
}

var abstractSections = []abstractSection{
	{"CORE INFORMATION", []domain.TermName{
		domain.TermTenantName,
		domain.TermSuiteNumber,
		domain.TermPropertyAddress,
		domain.TermRentableSquareFootage,
		domain.TermLeaseCommencementDate,
		domain.TermRentCommencementDate,
	}},
	{"FINANCIAL TERMS", []domain.TermName{
		domain.TermExpenseRecoveryType,
		domain.TermBaseYear,
		domain.TermTenantImprovementAllowance,
		domain.TermUnusedTIAllowance,
		domain.TermCapOnManagementFee,
		domain.TermExpenseGrossUpPercentage,
		domain.TermProRataShare,
		domain.TermBuildingDenominator,
		domain.TermControllableExpenseCap,
		domain.TermAdditionalCharges,
	}},
	{"LEGAL / ENTITY", []domain.TermName{
		domain.TermSigningEntity,
		domain.TermGuarantor,
		domain.TermLetterOfCredit,
	}},
	{"RIGHTS AND OPTIONS", []domain.TermName{
		domain.TermTerminationOptions,
		domain.TermRenewalOptions,
		domain.TermParkingRights,
		domain.TermRightOfFirstOffer,
		domain.TermRightOfFirstRefusal,
		domain.TermRightOfFirstOpportunity,
		domain.TermRightOfPurchaseOffer,
		domain.TermOptionSpace,
		domain.TermLandlordRelocationRight,
	}},
	{"EXPENSES", []domain.TermName{
		domain.TermControllableExpenses,
		domain.TermNonControllableExpenses,
	}},
	{"OTHER TERMS", []domain.TermName{
		domain.TermExclusiveUse,
		domain.TermSignage,
		domain.TermStorage,
		domain.TermSpacePocket,
		domain.TermCompetingBusinesses,
		domain.TermRestoration,
		domain.TermFreeRent,
		domain.TermRentAbatement,
	}},
}

// Exporter renders consolidated abstracts as Excel workbooks.
type Exporter struct {
	tenants   ports.TenantStore
	abstracts ports.AbstractStore
	now       func() time.Time
}

func NewExporter(tenants ports.TenantStore, abstracts ports.AbstractStore) *Exporter {
	return &Exporter{
		tenants:   tenants,
		abstracts: abstracts,
		now:       time.Now,
	}
}

var _ ports.AbstractExporter = (*Exporter)(nil)

// ExportAbstract renders one tenant's abstract: a sectioned term sheet with
// citations, plus a rent schedule sheet when periods exist.
func (e *Exporter) ExportAbstract(ctx context.Context, tenantID string) ([]byte, string, error) {
	tenant, err := e.tenants.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, "", err
	}

	abstract, err := e.abstracts.GetAbstract(ctx, tenantID)
	if err != nil && !domain.IsKind(err, domain.ErrNotFound) {
		return nil, "", err
	}

	schedule, err := e.abstracts.ListRentPeriods(ctx, tenantID, true)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(tenant.Name)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, "", fmt.Errorf("rename sheet: %w", err)
	}

	styles, err := newStyleSet(f)
	if err != nil {
		return nil, "", err
	}

	if err := f.MergeCell(sheet, "A1", "D1"); err != nil {
		return nil, "", fmt.Errorf("merge title: %w", err)
	}
	f.SetCellValue(sheet, "A1", fmt.Sprintf("LEASE ABSTRACT - %s", tenant.Name))
	f.SetCellStyle(sheet, "A1", "D1", styles.title)
	f.SetRowHeight(sheet, 1, 30)

	row := 3
	if abstract != nil {
		for _, section := range abstractSections {
			row = e.writeSection(f, sheet, styles, abstract, section, row)
		}
	}

	f.SetColWidth(sheet, "A", "A", 30)
	f.SetColWidth(sheet, "B", "B", 40)
	f.SetColWidth(sheet, "C", "C", 50)
	f.SetColWidth(sheet, "D", "D", 20)

	if len(schedule) > 0 {
		if err := e.writeRentScheduleSheet(f, styles, schedule); err != nil {
			return nil, "", err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), fmt.Sprintf("%s - Lease Abstract.xlsx", tenant.Name), nil
}

func (e *Exporter) writeSection(f *excelize.File, sheet string, styles styleSet, abstract *domain.AbstractState, section abstractSection, row int) int {
	f.SetCellValue(sheet, cell("A", row), section.title)
	f.MergeCell(sheet, cell("A", row), cell("D", row))
	f.SetCellStyle(sheet, cell("A", row), cell("D", row), styles.header)
	row++

	for _, name := range section.terms {
		field, ok := abstract.Fields[name]
		value := "N/A"
		if ok && !field.Value.IsAbsent() {
			value = field.Value.AsString()
		}
		f.SetCellValue(sheet, cell("A", row), domain.DisplayName(name))
		f.SetCellStyle(sheet, cell("A", row), cell("A", row), styles.label)
		f.SetCellValue(sheet, cell("B", row), value)
		if ok && field.Citation != nil {
			f.SetCellValue(sheet, cell("C", row), field.Citation.String())
			f.SetCellStyle(sheet, cell("C", row), cell("C", row), styles.citation)
		}
		row++
	}
	return row + 1
}

func (e *Exporter) writeRentScheduleSheet(f *excelize.File, styles styleSet, schedule []domain.RentPeriod) error {
	const sheet = "Rent Schedule"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("add rent schedule sheet: %w", err)
	}

	headers := []string{"Period Start", "Period End", "Monthly Rent", "Annual Rent", "Rent/SF", "Notes"}
	for i, header := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetCellValue(sheet, cell(col, 1), header)
		f.SetCellStyle(sheet, cell(col, 1), cell(col, 1), styles.header)
	}

	for i, period := range schedule {
		row := i + 2
		f.SetCellValue(sheet, cell("A", row), period.PeriodStart.Format(isoDateLayout))
		f.SetCellValue(sheet, cell("B", row), period.PeriodEnd.Format(isoDateLayout))
		f.SetCellValue(sheet, cell("C", row), period.MonthlyBaseRent)
		f.SetCellValue(sheet, cell("D", row), period.AnnualBaseRent)
		f.SetCellValue(sheet, cell("E", row), period.RentPerSqFt)
		f.SetCellValue(sheet, cell("F", row), period.Notes)
	}

	f.SetColWidth(sheet, "A", "B", 15)
	f.SetColWidth(sheet, "C", "D", 15)
	f.SetColWidth(sheet, "E", "E", 12)
	f.SetColWidth(sheet, "F", "F", 30)
	return nil
}

// ExportRentRoll renders one row per tenant of a property with the tenant's
// current rent, plus a totals row.
func (e *Exporter) ExportRentRoll(ctx context.Context, propertyName string) ([]byte, string, error) {
	tenants, err := e.tenants.ListTenantsByProperty(ctx, propertyName)
	if err != nil {
		return nil, "", err
	}
	if len(tenants) == 0 {
		return nil, "", domain.WrapError(domain.ErrNotFound, "export rent roll",
			fmt.Errorf("property %q has no tenants", propertyName))
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Rent Roll"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, "", fmt.Errorf("rename sheet: %w", err)
	}

	styles, err := newStyleSet(f)
	if err != nil {
		return nil, "", err
	}

	if err := f.MergeCell(sheet, "A1", "J1"); err != nil {
		return nil, "", fmt.Errorf("merge title: %w", err)
	}
	f.SetCellValue(sheet, "A1", fmt.Sprintf("RENT ROLL - %s", propertyName))
	f.SetCellStyle(sheet, "A1", "J1", styles.title)
	f.SetRowHeight(sheet, 1, 35)
	f.SetCellValue(sheet, "A2", fmt.Sprintf("Generated: %s", e.now().Format(isoDateLayout)))

	headers := []string{"Tenant", "Suite", "RSF", "Lease Start", "Lease End", "Monthly Rent", "Annual Rent", "Rent/SF", "Expense Type", "Renewal Options"}
	for i, header := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetCellValue(sheet, cell(col, 4), header)
		f.SetCellStyle(sheet, cell(col, 4), cell(col, 4), styles.header)
	}

	row := 5
	var totalRSF, totalMonthly, totalAnnual float64
	for _, tenant := range tenants {
		abstract, err := e.abstracts.GetAbstract(ctx, tenant.ID)
		if err != nil && !domain.IsKind(err, domain.ErrNotFound) {
			return nil, "", err
		}
		current, err := e.currentRent(ctx, tenant.ID)
		if err != nil {
			return nil, "", err
		}

		rsf := numberField(abstract, domain.TermRentableSquareFootage)
		totalRSF += rsf
		if current != nil {
			totalMonthly += current.MonthlyBaseRent
			totalAnnual += current.AnnualBaseRent
		}

		f.SetCellValue(sheet, cell("A", row), tenant.Name)
		f.SetCellValue(sheet, cell("B", row), tenant.SuiteNumber)
		if rsf > 0 {
			f.SetCellValue(sheet, cell("C", row), rsf)
		}
		f.SetCellValue(sheet, cell("D", row), textField(abstract, domain.TermLeaseCommencementDate))
		f.SetCellValue(sheet, cell("E", row), textField(abstract, domain.TermRentCommencementDate))
		if current != nil {
			f.SetCellValue(sheet, cell("F", row), current.MonthlyBaseRent)
			f.SetCellValue(sheet, cell("G", row), current.AnnualBaseRent)
			f.SetCellValue(sheet, cell("H", row), current.RentPerSqFt)
		}
		f.SetCellValue(sheet, cell("I", row), textField(abstract, domain.TermExpenseRecoveryType))
		f.SetCellValue(sheet, cell("J", row), hasField(abstract, domain.TermRenewalOptions))
		row++
	}

	f.SetCellValue(sheet, cell("A", row), "TOTAL")
	f.SetCellValue(sheet, cell("C", row), totalRSF)
	f.SetCellValue(sheet, cell("F", row), totalMonthly)
	f.SetCellValue(sheet, cell("G", row), totalAnnual)
	f.SetCellStyle(sheet, cell("A", row), cell("J", row), styles.label)

	f.SetColWidth(sheet, "A", "A", 25)
	f.SetColWidth(sheet, "B", "B", 10)
	f.SetColWidth(sheet, "C", "H", 14)
	f.SetColWidth(sheet, "I", "I", 16)
	f.SetColWidth(sheet, "J", "J", 16)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), fmt.Sprintf("%s - Rent Roll.xlsx", propertyName), nil
}

// currentRent picks the active period covering today, falling back to the
// earliest active period for leases not yet commenced.
func (e *Exporter) currentRent(ctx context.Context, tenantID string) (*domain.RentPeriod, error) {
	periods, err := e.abstracts.ListRentPeriods(ctx, tenantID, true)
	if err != nil {
		return nil, err
	}
	if len(periods) == 0 {
		return nil, nil
	}
	today := e.now()
	for i := range periods {
		if !periods[i].PeriodStart.After(today) && today.Before(periods[i].PeriodEnd) {
			return &periods[i], nil
		}
	}
	return &periods[0], nil
}

type styleSet struct {
	title    int
	header   int
	label    int
	citation int
}

func newStyleSet(f *excelize.File) (styleSet, error) {
	title, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFillColor}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return styleSet{}, fmt.Errorf("title style: %w", err)
	}
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFillColor}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return styleSet{}, fmt.Errorf("header style: %w", err)
	}
	label, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{labelFillColor}},
	})
	if err != nil {
		return styleSet{}, fmt.Errorf("label style: %w", err)
	}
	citation, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Italic: true, Size: 9},
	})
	if err != nil {
		return styleSet{}, fmt.Errorf("citation style: %w", err)
	}
	return styleSet{title: title, header: header, label: label, citation: citation}, nil
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// sheetName enforces the 31 character Excel sheet name limit.
func sheetName(name string) string {
	if len(name) > 31 {
		return name[:31]
	}
	return name
}

func textField(abstract *domain.AbstractState, name domain.TermName) string {
	if abstract == nil {
		return ""
	}
	field, ok := abstract.Fields[name]
	if !ok || field.Value.IsAbsent() {
		return ""
	}
	return field.Value.AsString()
}

func numberField(abstract *domain.AbstractState, name domain.TermName) float64 {
	if abstract == nil {
		return 0
	}
	field, ok := abstract.Fields[name]
	if !ok || field.Value.IsAbsent() {
		return 0
	}
	n, ok := field.Value.AsNumber()
	if !ok {
		return 0
	}
	return n
}

func hasField(abstract *domain.AbstractState, name domain.TermName) string {
	if abstract == nil {
		return "No"
	}
	if field, ok := abstract.Fields[name]; ok && !field.Value.IsAbsent() {
		return "Yes"
	}
	return "No"
}

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"orca/internal/core"
	"orca/internal/log"
	"orca/internal/state"
)

// Sheet names of the exported workbook.
const (
	SheetAccounts   = "Contas"
	SheetCategories = "Categorias"
	SheetEnvelopes  = "Envelopes"
	SheetGoals      = "Metas"
)

// WorkbookData is what goes into a budget export.
type WorkbookData struct {
	Budget     core.Budget
	Accounts   []core.Account
	Categories []core.Category
	Envelopes  []core.Envelope
	Goals      []core.GoalProjection
}

type ExportService struct {
	logger *log.Logger
}

func NewExportService(logger *log.Logger) *ExportService {
	if logger == nil {
		logger = log.Discard()
	}
	return &ExportService{logger: logger.WithComponent(log.ComponentExport)}
}

// BudgetWorkbook exports the selected budget. Unlike the dashboard, every
// list must load; a partial export would be misleading.
func (s *ExportService) BudgetWorkbook(ctx context.Context, ws *state.Workspace) ([]byte, error) {
	start := time.Now()
	if err := ws.Prepare(ctx); err != nil {
		return nil, err
	}
	budget, ok := ws.Budgets.Selected()
	if !ok {
		return nil, state.ErrNoBudgetSelected
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ws.Accounts.Ensure(gctx) })
	g.Go(func() error { return ws.Categories.Ensure(gctx) })
	g.Go(func() error { return ws.Envelopes.Ensure(gctx) })
	g.Go(func() error { return ws.Goals.Ensure(gctx) })
	if err := g.Wait(); err != nil {
		s.logger.WarnContext(ctx, "Export aborted", log.FieldOperation, log.OpExport,
			log.FieldBudgetID, budget.ID, log.FieldError, err.Error())
		return nil, err
	}

	data := WorkbookData{
		Budget:     budget,
		Accounts:   ws.Accounts.Data(),
		Categories: ws.Categories.Data(),
		Envelopes:  ws.Envelopes.Data(),
		Goals:      ws.Goals.Projections(),
	}
	out, err := BuildWorkbook(data)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Budget exported",
		log.FieldOperation, log.OpExport,
		log.FieldBudgetID, budget.ID,
		log.FieldCount, len(data.Accounts)+len(data.Categories)+len(data.Envelopes)+len(data.Goals),
		log.FieldDuration, time.Since(start).Milliseconds())
	return out, nil
}

// sheetWriter fills one sheet row by row.
type sheetWriter struct {
	f     *excelize.File
	name  string
	row   int
	money int
	pct   int
	err   error
}

func (w *sheetWriter) header(cols ...string) {
	for i, h := range cols {
		w.set(i+1, h)
	}
	w.row++
}

func (w *sheetWriter) set(col int, v any) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, w.row)
	if err != nil {
		w.err = err
		return
	}
	switch val := v.(type) {
	case core.Money:
		w.err = w.f.SetCellValue(w.name, cell, val.Float())
		if w.err == nil {
			w.err = w.f.SetCellStyle(w.name, cell, cell, w.money)
		}
	case percent:
		w.err = w.f.SetCellValue(w.name, cell, float64(val)/100)
		if w.err == nil {
			w.err = w.f.SetCellStyle(w.name, cell, cell, w.pct)
		}
	default:
		w.err = w.f.SetCellValue(w.name, cell, v)
	}
}

func (w *sheetWriter) line(values ...any) {
	for i, v := range values {
		w.set(i+1, v)
	}
	w.row++
}

type percent float64

// BuildWorkbook renders the export as XLSX bytes.
func BuildWorkbook(data WorkbookData) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return nil, fmt.Errorf("create money style: %w", err)
	}
	pct, err := f.NewStyle(&excelize.Style{NumFmt: 10})
	if err != nil {
		return nil, fmt.Errorf("create percent style: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", SheetAccounts); err != nil {
		return nil, err
	}
	for _, name := range []string{SheetCategories, SheetEnvelopes, SheetGoals} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	newWriter := func(name string) *sheetWriter {
		return &sheetWriter{f: f, name: name, row: 1, money: money, pct: pct}
	}

	categoryNames := make(map[string]string, len(data.Categories))
	for _, c := range data.Categories {
		categoryNames[c.ID] = c.Name
	}

	accounts := newWriter(SheetAccounts)
	accounts.header("Conta", "Tipo", "Saldo")
	for _, a := range data.Accounts {
		accounts.line(a.Name, a.Type.Label(), a.Balance)
	}
	accounts.line("Total", "", core.TotalBalance(data.Accounts))

	categories := newWriter(SheetCategories)
	categories.header("Categoria", "Tipo", "Ativa")
	for _, c := range data.Categories {
		active := "Não"
		if c.Active {
			active = "Sim"
		}
		categories.line(c.Name, c.Type.Label(), active)
	}

	envelopes := newWriter(SheetEnvelopes)
	envelopes.header("Envelope", "Categoria", "Limite", "Gasto", "Disponível", "Uso", "Situação")
	for _, e := range data.Envelopes {
		envelopes.line(e.Name, categoryNames[e.CategoryID], e.Limit, e.CurrentUsage, e.Available(),
			percent(e.Usage()), e.Level().Label())
	}

	goals := newWriter(SheetGoals)
	goals.header("Meta", "Valor total", "Acumulado", "Falta", "Progresso", "Prazo", "Sugestão mensal", "Situação")
	for _, g := range data.Goals {
		deadline := ""
		if g.Goal.Deadline != nil {
			deadline = g.Goal.Deadline.String()
		}
		var suggested any = ""
		if g.SuggestedMonthly != nil {
			suggested = *g.SuggestedMonthly
		}
		goals.line(g.Goal.Name, g.Goal.TotalAmount, g.Goal.AccumulatedAmount, g.Remaining,
			percent(g.Progress), deadline, suggested, g.Status.Label())
	}

	for _, w := range []*sheetWriter{accounts, categories, envelopes, goals} {
		if w.err != nil {
			return nil, fmt.Errorf("write sheet %s: %w", w.name, w.err)
		}
		if err := f.SetRowStyle(w.name, 1, 1, bold); err != nil {
			return nil, err
		}
		if err := f.SetColWidth(w.name, "A", "A", 28); err != nil {
			return nil, err
		}
		if err := f.SetColWidth(w.name, "B", "H", 16); err != nil {
			return nil, err
		}
	}
	_ = f.SetDocProps(&excelize.DocProperties{Title: data.Budget.Name, Creator: "orca"})

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

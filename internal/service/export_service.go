package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"shift-roster/backend/internal/model"
	"shift-roster/backend/internal/repository"
	"shift-roster/backend/pkg/clock"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoShifts     = errors.New("所选区间内暂无排班")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置响应头后写入。
// 工作簿包含两个 Sheet：
//   - 排班表：行为官员，列为日期，单元格为班次
//   - 汇总：每日各班次人数
type ExportService interface {
	ExportRoster(ctx context.Context, from, to string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

var shiftLabels = map[model.ShiftType]string{
	model.ShiftMorning:   "早班",
	model.ShiftAfternoon: "晚班",
	model.ShiftFullTime:  "全天",
	model.ShiftDayOff:    "休息",
	model.ShiftVacation:  "休假",
}

var summaryOrder = []model.ShiftType{
	model.ShiftMorning, model.ShiftAfternoon, model.ShiftFullTime, model.ShiftDayOff, model.ShiftVacation,
}

// ═══════════════════════════════════════════════════════════
// ExportRoster — 导出区间排班为 Excel
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportRoster(ctx context.Context, from, to string) (*bytes.Buffer, string, error) {
	fromDate, toDate, err := parseRange(from, to)
	if err != nil {
		return nil, "", err
	}

	shifts, err := s.repo.Shift.ListByRange(ctx, fromDate, toDate)
	if err != nil {
		s.logger.Error("查询区间排班失败", zap.Error(err))
		return nil, "", err
	}
	if len(shifts) == 0 {
		return nil, "", ErrExportNoShifts
	}

	dates, err := clock.DaysBetween(from, to)
	if err != nil {
		return nil, "", ErrInvalidDate
	}

	// 1. 建立索引: userID → date → 班次；date → 班次 → 人数
	type officer struct {
		id       string
		name     string
		username string
	}
	officers := make(map[string]officer)
	cells := make(map[string]map[string]model.ShiftType)
	counts := make(map[string]map[model.ShiftType]int)

	for _, sh := range shifts {
		if _, ok := officers[sh.UserID]; !ok {
			o := officer{id: sh.UserID, name: sh.UserID}
			if sh.User != nil {
				o.name = sh.User.Name
				o.username = sh.User.Username
			}
			officers[sh.UserID] = o
			cells[sh.UserID] = make(map[string]model.ShiftType)
		}
		cells[sh.UserID][sh.Date.String()] = sh.ShiftType

		if counts[sh.Date.String()] == nil {
			counts[sh.Date.String()] = make(map[model.ShiftType]int)
		}
		counts[sh.Date.String()][sh.ShiftType]++
	}

	ordered := make([]officer, 0, len(officers))
	for _, o := range officers {
		ordered = append(ordered, o)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].username != ordered[j].username {
			return ordered[i].username < ordered[j].username
		}
		return ordered[i].id < ordered[j].id
	})

	// 2. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "排班表"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	f.SetColWidth(sheetName, "A", "A", 16)
	f.SetColWidth(sheetName, "B", "B", 14)
	for i := range dates {
		col := colName(2 + i)
		f.SetColWidth(sheetName, col, col, 12)
	}

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("排班表 %s ~ %s", from, to))
	f.MergeCell(sheetName, "A1", cell(colName(1+len(dates)), 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	row := 2
	f.SetCellValue(sheetName, cell("A", row), "姓名")
	f.SetCellValue(sheetName, cell("B", row), "用户名")
	for i, d := range dates {
		f.SetCellValue(sheetName, cell(colName(2+i), row), d)
	}
	f.SetCellStyle(sheetName, cell("A", row), cell(colName(1+len(dates)), row), headerStyle)

	// 数据行
	row = 3
	for _, o := range ordered {
		f.SetCellValue(sheetName, cell("A", row), o.name)
		f.SetCellValue(sheetName, cell("B", row), o.username)
		for i, d := range dates {
			text := "-"
			if kind, ok := cells[o.id][d]; ok {
				text = shiftLabels[kind]
			}
			f.SetCellValue(sheetName, cell(colName(2+i), row), text)
		}
		row++
	}

	// 汇总
	summary := "汇总"
	f.NewSheet(summary)
	f.SetColWidth(summary, "A", "A", 12)
	f.SetCellValue(summary, "A1", "日期")
	for i, kind := range summaryOrder {
		f.SetCellValue(summary, cell(colName(1+i), 1), shiftLabels[kind])
	}
	f.SetCellStyle(summary, "A1", cell(colName(len(summaryOrder)), 1), headerStyle)
	for r, d := range dates {
		f.SetCellValue(summary, cell("A", r+2), d)
		for i, kind := range summaryOrder {
			f.SetCellValue(summary, cell(colName(1+i), r+2), counts[d][kind])
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("排班表_%s_%s.xlsx", from, to)
	return buf, filename, nil
}

// ── 辅助函数 ──

// colName 0 起始列号转列名
func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

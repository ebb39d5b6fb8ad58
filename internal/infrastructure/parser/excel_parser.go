package parser

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/yourusername/scan-pos/internal/domain/entity"
	"github.com/yourusername/scan-pos/internal/domain/repository"
)

type excelParser struct {
	logger *zap.Logger
}

// NewExcelParser yangi Excel parser yaratish
func NewExcelParser(logger *zap.Logger) repository.ExcelParser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &excelParser{logger: logger}
}

// ParseProducts Excel fayldan mahsulotlarni o'qish
func (e *excelParser) ParseProducts(ctx context.Context, filePath string) ([]entity.Product, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open excel file: %w", err)
	}
	defer f.Close()

	return e.parseExcelFile(f, filePath)
}

// ParseProductsFromBytes byte array dan parse qilish
func (e *excelParser) ParseProductsFromBytes(ctx context.Context, data []byte, filename string) ([]entity.Product, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open excel from bytes: %w", err)
	}
	defer f.Close()

	return e.parseExcelFile(f, filename)
}

// parseExcelFile birinchi sheetdagi jadvalni mahsulotlarga aylantirish
func (e *excelParser) parseExcelFile(f *excelize.File, source string) ([]entity.Product, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("excel file has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("excel file is empty")
	}

	log := e.logger.With(zap.String("source", source))
	log.Debug("excel loaded", zap.Int("rows", len(rows)), zap.Strings("first_row", rows[0]))

	// Header qatori borligini tekshirish: birinchi ustun faqat raqam
	// (shtrix-kod) bo'lsa, header yo'q
	hasHeader := !looksLikeBarcode(cell(rows[0], 0))
	startRow := 1
	var header []string
	var columnMap map[string]int

	if hasHeader {
		header = rows[0]
		columnMap = e.mapColumns(header)
	} else {
		startRow = 0
		// Default: shtrix-kod | nom | narx | ombor
		columnMap = map[string]int{"barcode": 0, "name": 1, "price": 2}
		if len(rows[0]) > 3 {
			columnMap["stock"] = 3
		}
	}

	if _, ok := columnMap["price"]; !ok {
		if guessed := e.detectPriceColumn(rows, startRow, columnMap); guessed >= 0 {
			columnMap["price"] = guessed
			log.Debug("guessed price column", zap.Int("column", guessed))
		} else {
			return nil, fmt.Errorf("price column not found")
		}
	}
	if _, ok := columnMap["name"]; !ok {
		return nil, fmt.Errorf("name column not found")
	}
	log.Debug("column mapping", zap.Any("columns", columnMap))

	used := make(map[int]struct{}, len(columnMap))
	for _, idx := range columnMap {
		used[idx] = struct{}{}
	}

	var products []entity.Product
	seenBarcodes := make(map[string]int)
	now := time.Now()

	for i := startRow; i < len(rows); i++ {
		row := rows[i]

		// Bo'sh qatorlarni skip qilish
		if isEmptyRow(row) {
			continue
		}

		name := column(row, columnMap, "name")
		priceStr := column(row, columnMap, "price")
		if name == "" || priceStr == "" {
			continue
		}

		price, err := e.parsePrice(priceStr)
		if err != nil || price <= 0 {
			log.Warn("invalid price, row skipped", zap.Int("row", i+1), zap.String("price", priceStr))
			continue
		}

		product := entity.Product{
			ID:        column(row, columnMap, "id"),
			Barcode:   column(row, columnMap, "barcode"),
			Name:      name,
			Price:     price,
			Category:  column(row, columnMap, "category"),
			Image:     column(row, columnMap, "image"),
			CreatedAt: now,
			UpdatedAt: now,
			Specs:     make(map[string]string),
		}
		if product.ID == "" {
			product.ID = uuid.New().String()
		}
		if product.Category == "" {
			product.Category = "Boshqa"
		}
		product.Description = column(row, columnMap, "description")

		if stockStr := column(row, columnMap, "stock"); stockStr != "" {
			if stock, err := strconv.Atoi(strings.ReplaceAll(stockStr, " ", "")); err == nil && stock >= 0 {
				product.Stock = stock
			}
		}

		if product.Barcode != "" {
			if prev, dup := seenBarcodes[product.Barcode]; dup {
				log.Warn("duplicate barcode, row skipped",
					zap.String("barcode", product.Barcode),
					zap.Int("row", i+1),
					zap.Int("first_row", prev))
				continue
			}
			seenBarcodes[product.Barcode] = i + 1
		}

		// Qo'shimcha ustunlarni specs ga qo'shish
		for idx, raw := range row {
			if _, ok := used[idx]; ok {
				continue
			}
			value := strings.TrimSpace(raw)
			if value == "" {
				continue
			}
			key := fmt.Sprintf("Extra_%d", idx)
			if idx < len(header) && strings.TrimSpace(header[idx]) != "" {
				key = strings.TrimSpace(header[idx])
			}
			product.Specs[key] = value
		}

		products = append(products, product)
	}

	log.Info("excel catalog parsed", zap.Int("products", len(products)), zap.Int("with_barcode", len(seenBarcodes)))

	if len(products) == 0 {
		return nil, fmt.Errorf("no valid products found in excel file (parsed %d rows, but all were invalid)", len(rows)-startRow)
	}

	return products, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func column(row []string, columnMap map[string]int, field string) string {
	idx, ok := columnMap[field]
	if !ok {
		return ""
	}
	return cell(row, idx)
}

// isEmptyRow qator bo'sh yoki yo'qligini tekshirish
func isEmptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// looksLikeBarcode EAN/UPC kabi faqat raqamlardan iborat kod
func looksLikeBarcode(s string) bool {
	if len(s) < 4 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// detectPriceColumn narx ustunini topish (agar headerda topilmasa)
func (e *excelParser) detectPriceColumn(rows [][]string, startRow int, columnMap map[string]int) int {
	taken := make(map[int]bool, len(columnMap))
	for _, idx := range columnMap {
		taken[idx] = true
	}

	limitRows := startRow + 15
	if limitRows > len(rows) {
		limitRows = len(rows)
	}

	maxCols := 0
	for i := startRow; i < limitRows; i++ {
		if len(rows[i]) > maxCols {
			maxCols = len(rows[i])
		}
	}

	bestCol, bestCount := -1, 0
	for col := 0; col < maxCols; col++ {
		if taken[col] {
			continue
		}
		count := 0
		for i := startRow; i < limitRows; i++ {
			val := cell(rows[i], col)
			if val == "" || looksLikeBarcode(val) {
				continue
			}
			if _, err := e.parsePrice(val); err == nil {
				count++
			}
		}
		if count > bestCount {
			bestCount, bestCol = count, col
		}
	}

	// Kamida 2 ta qator narx sifatida o'qilsa, shu ustunni narx deb olamiz
	if bestCount >= 2 {
		return bestCol
	}
	return -1
}

// mapColumns header qatoridan column mapping yaratish
func (e *excelParser) mapColumns(header []string) map[string]int {
	columnMap := make(map[string]int)
	set := func(field string, idx int) {
		if _, exists := columnMap[field]; !exists {
			columnMap[field] = idx
		}
	}

	for i, col := range header {
		colName := strings.ToLower(strings.TrimSpace(col))
		if colName == "" {
			continue
		}

		// Shtrix-kod birinchi: "product code" nom emas
		switch {
		case contains(colName, "barcode", "bar code", "shtrix", "штрих", "ean", "upc", "gtin", "code", "kod"):
			set("barcode", i)
		case colName == "id" || colName == "sku" || colName == "artikul":
			set("id", i)
		case contains(colName, "regularprice", "regular price", "price", "narx", "summa", "цена", "сум", "cost", "$", "usd", "uzs"):
			set("price", i)
		case contains(colName, "name", "nom", "nomi", "название", "product", "mahsulot", "tovar"):
			set("name", i)
		case contains(colName, "category", "kategoriya", "тип", "категория", "type"):
			set("category", i)
		case contains(colName, "description", "tavsif", "malumot", "описание", "info", "details"):
			set("description", i)
		case contains(colName, "stock", "soni", "miqdor", "количество", "qty", "quantity", "ombor"):
			set("stock", i)
		case contains(colName, "image", "rasm", "photo", "img"):
			set("image", i)
		}
	}

	if _, ok := columnMap["name"]; !ok && len(header) > 0 {
		e.logger.Warn("no name column in header, using column 0")
		set("name", 0)
	}

	return columnMap
}

// contains tekshirish uchun helper
func contains(str string, keywords ...string) bool {
	for _, keyword := range keywords {
		if strings.Contains(str, keyword) {
			return true
		}
	}
	return false
}

// parsePrice valyuta belgilarini olib tashlab narxni minor birlikda o'qish
func (e *excelParser) parsePrice(priceStr string) (entity.Money, error) {
	priceStr = strings.ToLower(strings.TrimSpace(priceStr))
	if priceStr == "" {
		return 0, fmt.Errorf("empty price")
	}

	for _, sym := range []string{"$", "€", "£", "₽", "¥", "so'm", "soʻm", "soum", "som", "сум", "сом", "sum", "uzs", "usd", "eur", "руб"} {
		priceStr = strings.ReplaceAll(priceStr, sym, "")
	}

	return entity.ParseMoney(priceStr)
}

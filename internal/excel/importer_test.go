package excel

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/example/studyapp/internal/database"
	"github.com/example/studyapp/internal/database/dbtest"
	"github.com/example/studyapp/internal/logger"
)

func writeWorkbook(t *testing.T, sheet string, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", sheet))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}
	path := filepath.Join(t.TempDir(), "content.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestParseContentType(t *testing.T) {
	ct, err := ParseContentType(" English-Order ")
	require.NoError(t, err)
	assert.Equal(t, ContentEnglishOrder, ct)

	_, err = ParseContentType("podcast")
	assert.Error(t, err)

	for _, ct := range ContentTypes {
		m := ct.Mapping()
		assert.NotEmpty(t, m.SessionColumn, ct)
		assert.NotEmpty(t, m.EnglishColumn, ct)
		assert.NotEmpty(t, m.KoreanColumn, ct)
	}
}

func TestImportDailyWorkbook(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	path := writeWorkbook(t, "Daily", [][]interface{}{
		{"session", "title", "pattern_en", "pattern_ko", "description", "english", "korean", "audio", "status"},
		{2, "Second", "", "", "", "See you", "또 봐요", "Daily_002_1.mp3", ""},
		{1, "First", "How are you?", "잘 지내요?", "greeting", "How are you?", "잘 지내?", "Daily_001_1.mp3", ""},
		{1, "", "", "", "", "I'm good", "좋아", "", ""},
		{1, "", "", "", "", "missing korean", "", "", ""},
		{"x", "bad", "", "", "", "a", "b", "", ""},
	})

	cfg := DefaultImportConfig()
	cfg.FilePath = path
	cfg.SheetName = "Daily"
	cfg.CategoryName = "Daily Expression"
	cfg.CategorySlug = "daily-expression"

	im := NewImporter(db, logger.Nop())
	result, err := im.Import(ctx, cfg)
	require.NoError(t, err)

	assert.True(t, result.CategoryCreated)
	assert.Equal(t, 5, result.TotalProcessed)
	assert.Equal(t, 2, result.SessionsUpserted)
	assert.Equal(t, 3, result.ExpressionsCreated)
	assert.Equal(t, 2, result.Skipped)
	assert.Len(t, result.Errors, 2)
	assert.Equal(t, 2, result.TotalSessions)

	category, err := database.NewCategoryRepository(db).GetBySlug(ctx, "daily-expression")
	require.NoError(t, err)
	require.NotNil(t, category)
	assert.Equal(t, "daily", category.ContentType)
	assert.Equal(t, 2, category.TotalSessions)

	session, err := database.NewSessionRepository(db).GetByNumber(ctx, category.ID, 1)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, "First", session.Title)
	require.NotNil(t, session.PatternEnglish)
	assert.Equal(t, "How are you?", *session.PatternEnglish)
	assert.Equal(t, "daily", session.Metadata.String("content_type"))

	expressions, err := database.NewExpressionRepository(db).ListBySession(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, expressions, 2)
	assert.Equal(t, "How are you?", expressions[0].English)
	require.NotNil(t, expressions[0].AudioURL)
	assert.Equal(t, "daily-expression/Daily_001_1.mp3", *expressions[0].AudioURL)
	assert.Nil(t, expressions[1].AudioURL)

	book, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer book.Close()
	status, err := book.GetCellValue("Daily", "I2")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, status)
	status, err = book.GetCellValue("Daily", "I6")
	require.NoError(t, err)
	assert.Empty(t, status)
}

func TestReimportReplacesExpressions(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	im := NewImporter(db, logger.Nop())

	cfg := DefaultImportConfig()
	cfg.SheetName = "Shadow"
	cfg.ContentType = ContentShadowing
	cfg.CategorySlug = "shadowing"
	cfg.MarkStatus = false

	cfg.FilePath = writeWorkbook(t, "Shadow", [][]interface{}{
		{"session", "title", "english", "korean", "audio", "status"},
		{1, "One", "a", "가", "", ""},
		{1, "One", "b", "나", "", ""},
	})
	_, err := im.Import(ctx, cfg)
	require.NoError(t, err)

	cfg.FilePath = writeWorkbook(t, "Shadow", [][]interface{}{
		{"session", "title", "english", "korean", "audio", "status"},
		{1, "One again", "c", "다", "", ""},
	})
	result, err := im.Import(ctx, cfg)
	require.NoError(t, err)
	assert.False(t, result.CategoryCreated)

	session, err := database.NewSessionRepository(db).GetByNumber(ctx, result.CategoryID, 1)
	require.NoError(t, err)
	assert.Equal(t, "One again", session.Title)

	expressions, err := database.NewExpressionRepository(db).ListBySession(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, expressions, 1)
	assert.Equal(t, "c", expressions[0].English)

	n, err := database.NewSessionRepository(db).CountByCategory(ctx, result.CategoryID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestImportNewsImages(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	path := writeWorkbook(t, "News", [][]interface{}{
		{"session", "title", "english", "korean", "audio", "pattern_audio", "status", "images"},
		{1, "Rates rise", "Rates went up", "금리가 올랐다", "N_001_1.mp3", "", "", "chart.png, photos/desk.jpg\nlast.png"},
		{2, "Quiet day", "Nothing happened", "별일 없었다", "", "", "", ""},
	})

	cfg := DefaultImportConfig()
	cfg.FilePath = path
	cfg.SheetName = "News"
	cfg.ContentType = ContentNews
	cfg.CategoryName = "News"
	cfg.CategorySlug = "news"

	result, err := NewImporter(db, logger.Nop()).Import(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, result.SessionsUpserted)

	sessions := database.NewSessionRepository(db)
	first, err := sessions.GetByNumber(ctx, result.CategoryID, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"news/chart.png", "photos/desk.jpg", "news/last.png"}, first.Metadata.Strings("images"))

	second, err := sessions.GetByNumber(ctx, result.CategoryID, 2)
	require.NoError(t, err)
	assert.Nil(t, second.Metadata.Strings("images"))

	book, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer book.Close()
	status, err := book.GetCellValue("News", "G2")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, status)
	images, err := book.GetCellValue("News", "H2")
	require.NoError(t, err)
	assert.Contains(t, images, "chart.png")
}

func TestImportCSVEnglishOrder(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)

	path := filepath.Join(t.TempDir(), "order.csv")
	content := "session,title,question,english,korean,audio,pattern_audio,status\n" +
		"1,Order 1,What did you eat?,I ate rice,나는 밥을 먹었어,EO_001_1.mp3,EO_001_p.mp3,\n" +
		"\n" +
		"3,Order 3,Where are you?,I'm home,집이야,,,\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg := DefaultImportConfig()
	cfg.FilePath = path
	cfg.ContentType = ContentEnglishOrder
	cfg.CategoryName = "English Order"
	cfg.CategorySlug = "english-order"

	result, err := NewImporter(db, logger.Nop()).Import(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalProcessed)
	assert.Equal(t, 2, result.SessionsUpserted)
	assert.Equal(t, 2, result.TotalSessions)

	session, err := database.NewSessionRepository(db).GetByNumber(ctx, result.CategoryID, 1)
	require.NoError(t, err)
	assert.Equal(t, "What did you eat?", session.Metadata.String("question"))
	assert.Equal(t, "english-order/EO_001_p.mp3", session.Metadata.String("pattern_audio_url"))

	next, err := database.NewSessionRepository(db).NextNumber(ctx, result.CategoryID, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, next)
}

func TestImportRejectsUnknownInputs(t *testing.T) {
	db := dbtest.Open(t)
	im := NewImporter(db, logger.Nop())

	cfg := DefaultImportConfig()
	cfg.FilePath = "content.txt"
	cfg.CategorySlug = "daily"
	_, err := im.Import(context.Background(), cfg)
	assert.Error(t, err)

	cfg.FilePath = "content.csv"
	cfg.ContentType = "podcast"
	_, err = im.Import(context.Background(), cfg)
	assert.Error(t, err)
}

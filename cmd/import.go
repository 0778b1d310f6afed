package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/studyapp/internal/excel"
)

var (
	flagImportSheet    string
	flagImportType     string
	flagImportCategory string
	flagImportSlug     string
	flagImportStartRow int
	flagImportNoMark   bool
)

var importCmd = &cobra.Command{
	Use:   "import <file.xlsx|file.csv>",
	Short: "Import sessions and expressions from a spreadsheet",
	Long: "Import sessions and expressions from an Excel or CSV file. The column layout follows --type: " +
		strings.Join(contentTypeNames(), ", ") + ".",
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	defaults := excel.DefaultImportConfig()
	importCmd.Flags().StringVar(&flagImportSheet, "sheet", defaults.SheetName, "Sheet to read (xlsx only)")
	importCmd.Flags().StringVarP(&flagImportType, "type", "t", string(defaults.ContentType), "Content type of the sheet")
	importCmd.Flags().StringVar(&flagImportCategory, "category", "", "Category name, used when the slug does not exist yet")
	importCmd.Flags().StringVar(&flagImportSlug, "slug", "", "Category slug")
	importCmd.Flags().IntVar(&flagImportStartRow, "start-row", defaults.StartRow, "First data row (1-based)")
	importCmd.Flags().BoolVar(&flagImportNoMark, "no-mark", false, "Do not write the status column back into the workbook")
	_ = importCmd.MarkFlagRequired("slug")
	rootCmd.AddCommand(importCmd)
}

func contentTypeNames() []string {
	names := make([]string, 0, len(excel.ContentTypes))
	for _, ct := range excel.ContentTypes {
		names = append(names, string(ct))
	}
	return names
}

func runImport(_ *cobra.Command, args []string) error {
	contentType, err := excel.ParseContentType(flagImportType)
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer closeApp(a)

	cfg := excel.ImportConfig{
		FilePath:     args[0],
		SheetName:    flagImportSheet,
		ContentType:  contentType,
		CategoryName: flagImportCategory,
		CategorySlug: flagImportSlug,
		StartRow:     flagImportStartRow,
		MarkStatus:   !flagImportNoMark,
	}
	result, err := a.Services.Importer.Import(context.Background(), cfg)
	if err != nil {
		return err
	}

	fmt.Printf("  Category:     %s", flagImportSlug)
	if result.CategoryCreated {
		fmt.Print(" (created)")
	}
	fmt.Println()
	fmt.Printf("  Rows:         %d processed, %d skipped\n", result.TotalProcessed, result.Skipped)
	fmt.Printf("  Sessions:     %d upserted, %d total\n", result.SessionsUpserted, result.TotalSessions)
	fmt.Printf("  Expressions:  %d\n", result.ExpressionsCreated)
	for _, e := range result.Errors {
		fmt.Printf("    %s\n", e)
	}
	return nil
}

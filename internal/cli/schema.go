package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/brunseba/vra-cli/pkg/engine"
	"github.com/brunseba/vra-cli/pkg/inputfile"
	"github.com/brunseba/vra-cli/pkg/model"
)

var (
	flagListType string
	flagListName string
	flagExportTo string
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Inspect loaded catalog item schemas",
}

var schemaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List loaded schemas",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, schema := range registry.ListSchemas(flagListType, flagListName) {
			printSchemaLine(schema)
		}
		return nil
	},
}

var schemaSearchCmd = &cobra.Command{
	Use:   "search TEXT",
	Short: "Search schemas by name or description",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, schema := range registry.SearchSchemas(args[0]) {
			printSchemaLine(schema)
		}
		return nil
	},
}

var schemaShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show the ordered input form of a schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := registry.GetSchema(args[0])
		if err != nil {
			return err
		}
		fields, err := engine.ExtractFormFields(schema)
		if err != nil {
			return err
		}

		fmt.Printf("%s (%s) v%s\n", schema.Name, schema.ID, schema.Version)
		if schema.Description != "" {
			fmt.Println(schema.Description)
		}
		for _, field := range fields {
			printFieldLine(field)
		}
		return nil
	},
}

var schemaStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show registry status",
	RunE: func(cmd *cobra.Command, args []string) error {
		status := registry.Status()
		fmt.Printf("loaded: %d schemas\n", status.Loaded)

		types := make([]string, 0, len(status.ByType))
		for itemType := range status.ByType {
			types = append(types, itemType)
		}
		sort.Strings(types)
		for _, itemType := range types {
			fmt.Printf("  %s: %d\n", itemType, status.ByType[itemType])
		}
		for _, dir := range status.Directories {
			fmt.Printf("dir: %s\n", dir)
		}
		if status.Warnings > 0 {
			fmt.Printf("warnings: %d (see log)\n", status.Warnings)
		}
		return nil
	},
}

var schemaExportCmd = &cobra.Command{
	Use:   "export ID",
	Short: "Export a blank input template for a schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := registry.GetSchema(args[0])
		if err != nil {
			return err
		}
		fields, err := engine.ExtractFormFields(schema)
		if err != nil {
			return err
		}
		if flagExportTo == "" {
			flagExportTo = schema.ID + "-inputs.json"
		}
		if err := inputfile.Write(flagExportTo, inputfile.Template(fields)); err != nil {
			return err
		}
		fmt.Printf("template written to %s\n", flagExportTo)
		return nil
	},
}

func init() {
	schemaListCmd.Flags().StringVar(&flagListType, "type", "", "filter by declared item type")
	schemaListCmd.Flags().StringVar(&flagListName, "name", "", "filter by name substring")
	schemaExportCmd.Flags().StringVarP(&flagExportTo, "output", "o", "", "output file (.json/.yaml)")

	schemaCmd.AddCommand(schemaListCmd, schemaSearchCmd, schemaShowCmd, schemaStatusCmd, schemaExportCmd)
	rootCmd.AddCommand(schemaCmd)
}

func printSchemaLine(schema *model.CatalogItemSchema) {
	itemType := schema.ItemType
	if itemType == "" {
		itemType = "unknown"
	}
	fmt.Printf("%-40s %-24s %s\n", schema.ID, itemType, schema.Name)
}

func printFieldLine(field model.FormField) {
	var notes []string
	if field.Required {
		notes = append(notes, "required")
	}
	if field.HasChoices() {
		notes = append(notes, fmt.Sprintf("%d choices", len(field.Choices)))
	}
	if field.DataSource != "" {
		notes = append(notes, "dynamic")
	}
	suffix := ""
	if len(notes) > 0 {
		suffix = " [" + strings.Join(notes, ", ") + "]"
	}
	fmt.Printf("  %-24s %s%s\n", field.Name, field.Type, suffix)
}

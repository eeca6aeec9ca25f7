package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"city-insights/internal/common/validation"
	"city-insights/pkg/registry"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var registryPath string

func init() {
	rootCmd.AddCommand(registryCmd)
	registryCmd.PersistentFlags().StringVar(&registryPath, "registry", "configs/activity-registry.json", "activity registry file")
	registryCmd.AddCommand(registryValidateCmd, registryListCmd, registrySetCmd)
}

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Inspect and maintain the activity registry",
}

var registryValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check required fields and compile every input schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return validateRegistry(registryPath, cmd.OutOrStdout())
	},
}

var registryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered activities",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry.LoadRegistry(registryPath)
		if err != nil {
			return err
		}
		return listRegistry(reg, cmd.OutOrStdout())
	},
}

var registrySetCmd = &cobra.Command{
	Use:   "set <activity-id> <field> <value>",
	Short: "Update status, version, description, timeout or retries of an activity",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry.LoadRegistry(registryPath)
		if err != nil {
			return err
		}
		if err := reg.Set(args[0], args[1], args[2], time.Now()); err != nil {
			return err
		}
		if err := reg.Save(registryPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "updated %s.%s\n", args[0], args[1])
		return nil
	},
}

func validateRegistry(path string, out io.Writer) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return err
	}
	if err := reg.Check(); err != nil {
		return err
	}
	if err := reg.RegisterSchemas(validation.NewValidator()); err != nil {
		return err
	}
	fmt.Fprintf(out, "registry ok: %d activities\n", len(reg.Activities))
	return nil
}

var registryCell = lipgloss.NewStyle().Padding(0, 1)

func listRegistry(reg *registry.ActivityRegistry, out io.Writer) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style { return registryCell }).
		Headers("ID", "TASK TYPE", "STATUS", "TIMEOUT", "RETRIES")
	for _, a := range reg.Activities {
		t.Row(a.ID, a.TaskType, a.ImplementationStatus, a.Timeout, strconv.Itoa(a.Retries))
	}
	_, err := fmt.Fprintln(out, t.String())
	return err
}

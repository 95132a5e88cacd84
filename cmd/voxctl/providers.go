package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/voxchain/voxchain/core"
	"github.com/voxchain/voxchain/tts"
)

func newProvidersCmd() *cobra.Command {
	var showFactories bool

	cmd := &cobra.Command{
		Use:   "providers",
		Short: "Show the provider chain status",
		Long: `Providers builds the chain from the current configuration and prints
each provider's priority, circuit state, and supported voices. With
--factories it instead lists the registered provider factories and
whether the environment has what they need.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if showFactories {
				return printFactories(cmd)
			}
			return printChainStatus(cmd)
		},
	}

	cmd.Flags().BoolVar(&showFactories, "factories", false, "list registered provider factories instead")

	return cmd
}

func printChainStatus(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	chain, err := tts.NewChainFromConfig(cfg, tts.NewDependencies(cfg))
	if err != nil {
		return err
	}

	infoByName := make(map[string]core.ProviderInfo)
	for _, info := range chain.ProviderInfos() {
		infoByName[info.Name] = info
	}

	table := newTable(cmd)
	table.SetHeader([]string{"Provider", "Priority", "Enabled", "Circuit", "Failures", "Voices"})

	for _, status := range chain.ProvidersStatus() {
		voices := "-"
		if info, ok := infoByName[status.Name]; ok && len(info.SupportedVoices) > 0 {
			voices = strings.Join(info.SupportedVoices, ", ")
		}

		circuit := status.CircuitStatus
		if circuit == "open" && !status.OpenUntil.IsZero() {
			circuit = fmt.Sprintf("open until %s", status.OpenUntil.Format("15:04:05"))
		}

		table.Append([]string{
			status.Name,
			strconv.Itoa(status.Priority),
			yesNo(status.Enabled),
			circuit,
			strconv.Itoa(status.ConsecutiveFailures),
			voices,
		})
	}

	table.Render()
	return nil
}

func printFactories(cmd *cobra.Command) error {
	table := newTable(cmd)
	table.SetHeader([]string{"Factory", "Available", "Priority", "Description"})

	for _, info := range tts.GetFactoryInfo() {
		table.Append([]string{
			info.Name,
			yesNo(info.Available),
			strconv.Itoa(info.Priority),
			info.Description,
		})
	}

	table.Render()
	return nil
}

func newTable(cmd *cobra.Command) *tablewriter.Table {
	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetBorder(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)
	return table
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/aktsk/ff7-medit/pkg/dispatch"
)

func init() {
	cmd := &cobra.Command{
		Use:   "fields",
		Short: "List the fields of the active address table",
		Run:   runFields,
	}
	RootCmd.AddCommand(cmd)
}

func runFields(cmd *cobra.Command, args []string) {
	a := mustApp(cmd)
	if formatFlag == "text" {
		if err := writeEntries(os.Stdout, a.bridge.Table()); err != nil {
			exitErr("fields", err)
		}
		return
	}
	res, err := a.invoke(cmd.Context(), dispatch.CmdListFields, nil)
	if err != nil {
		exitErr("fields", err)
	}
	printJSON(res)
}

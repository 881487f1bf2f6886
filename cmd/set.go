package cmd

import (
	"github.com/spf13/cobra"

	"github.com/aktsk/ff7-medit/pkg/dispatch"
)

func init() {
	cmd := &cobra.Command{
		Use:     "set <field> <value>",
		Short:   "Set a scalar field to a decimal or 0x value",
		Example: "  ff7-medit set gil 9999999\n  ff7-medit set game_module 0x1",
		Args:    cobra.ExactArgs(2),
		Run:     runSet,
	}
	RootCmd.AddCommand(cmd)
}

func runSet(cmd *cobra.Command, args []string) {
	a := mustApp(cmd)
	res, err := a.invoke(cmd.Context(), dispatch.CmdWriteValue, dispatch.WriteValueArgs{Field: args[0], Value: args[1]})
	if err != nil {
		exitErr("set", err)
	}
	printJSON(res)
}

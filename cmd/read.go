package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/aktsk/ff7-medit/pkg/dispatch"
	"github.com/aktsk/ff7-medit/pkg/gamedata"
)

func init() {
	cmd := &cobra.Command{
		Use:   "read <field>",
		Short: "Read one field",
		Args:  cobra.ExactArgs(1),
		Run:   runRead,
	}
	RootCmd.AddCommand(cmd)
}

func runRead(cmd *cobra.Command, args []string) {
	a := mustApp(cmd)
	res, err := a.invoke(cmd.Context(), dispatch.CmdReadField, dispatch.FieldArgs{Field: args[0]})
	if err != nil {
		exitErr("read", err)
	}
	f := res.(*gamedata.Field)
	if formatFlag == "text" {
		if err := writeFields(os.Stdout, []gamedata.Field{*f}); err != nil {
			exitErr("read", err)
		}
		return
	}
	printJSON(f)
}

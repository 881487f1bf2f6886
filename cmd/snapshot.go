package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/aktsk/ff7-medit/pkg/dispatch"
	"github.com/aktsk/ff7-medit/pkg/gamedata"
)

func init() {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Read every field of the address table at once",
		Run:   runSnapshot,
	}
	RootCmd.AddCommand(cmd)
}

func runSnapshot(cmd *cobra.Command, args []string) {
	a := mustApp(cmd)
	res, err := a.invoke(cmd.Context(), dispatch.CmdReadSnapshot, nil)
	if err != nil {
		exitErr("snapshot", err)
	}
	snap := res.(*gamedata.Snapshot)
	if formatFlag == "text" {
		if err := writeFields(os.Stdout, snap.Fields); err != nil {
			exitErr("snapshot", err)
		}
		return
	}
	printJSON(snap)
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aktsk/ff7-medit/pkg/dispatch"
)

func init() {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report whether the game is running",
		Run:   runStatus,
	}
	RootCmd.AddCommand(cmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	a := mustApp(cmd)
	running, err := a.invoke(cmd.Context(), dispatch.CmdIsRunning, nil)
	if err != nil {
		exitErr("status", err)
	}
	if formatFlag == "text" {
		fmt.Printf("build:   %s\nprocess: %v\nrunning: %v\n", a.bridge.Table().Build(), a.cfg.ProcessNames, running)
		return
	}
	printJSON(map[string]any{
		"build":         a.bridge.Table().Build(),
		"process_names": a.cfg.ProcessNames,
		"running":       running,
	})
}

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aktsk/ff7-medit/pkg/dispatch"
	"github.com/aktsk/ff7-medit/pkg/scene/ff7"
)

func init() {
	cmd := &cobra.Command{
		Use:   "scenes [scene.bin | game directory]",
		Short: "Decode battle scenes",
		Long:  "Decode battle/scene.bin. Without an argument the configured game directory is used.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runScenes,
	}
	cmd.Flags().IntP("index", "i", -1, "Print only this scene")
	RootCmd.AddCommand(cmd)
}

func runScenes(cmd *cobra.Command, args []string) {
	path := ""
	if len(args) == 1 {
		path = args[0]
	}
	index, _ := cmd.Flags().GetInt("index")

	a := mustApp(cmd)
	res, err := a.invoke(cmd.Context(), dispatch.CmdDecodeSceneFile, dispatch.SceneFileArgs{Path: path})
	if err != nil {
		exitErr("scenes", err)
	}
	scenes := res.([]ff7.BattleScene)
	if index >= 0 {
		if index >= len(scenes) {
			exitErr("scenes", fmt.Errorf("scene %d out of range, file has %d", index, len(scenes)))
		}
		scenes = scenes[index : index+1]
	}
	if formatFlag == "text" {
		if err := writeScenes(os.Stdout, scenes); err != nil {
			exitErr("scenes", err)
		}
		return
	}
	printJSON(scenes)
}

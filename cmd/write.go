package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aktsk/ff7-medit/pkg/converter"
	"github.com/aktsk/ff7-medit/pkg/dispatch"
)

func init() {
	cmd := &cobra.Command{
		Use:   "write <field> <data>",
		Short: "Write raw bytes to a field",
		Long: "Write raw bytes to the start of a field. Data is hex by default. " +
			"Buffer fields accept a prefix; other fields must be written whole.",
		Args: cobra.ExactArgs(2),
		Run:  runWrite,
	}
	cmd.Flags().String("encoding", "hex", "Data encoding: hex, utf8 or ff7 (FF7 field text, terminated)")
	RootCmd.AddCommand(cmd)
}

func encodeData(encoding, data string) ([]byte, error) {
	switch encoding {
	case "hex":
		return converter.HexToBytes(data)
	case "utf8":
		return converter.StringToBytes(data)
	case "ff7":
		return converter.StringToFF7Text(data)
	}
	return nil, fmt.Errorf("unknown encoding %q", encoding)
}

func runWrite(cmd *cobra.Command, args []string) {
	encoding, _ := cmd.Flags().GetString("encoding")
	data, err := encodeData(encoding, args[1])
	if err != nil {
		exitErr("write", err)
	}

	a := mustApp(cmd)
	res, err := a.invoke(cmd.Context(), dispatch.CmdWriteBuffer, dispatch.WriteBufferArgs{Field: args[0], Data: data})
	if err != nil {
		exitErr("write", err)
	}
	printJSON(res)
}

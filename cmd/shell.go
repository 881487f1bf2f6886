package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	prompt "github.com/c-bata/go-prompt"
	"github.com/spf13/cobra"

	"github.com/aktsk/ff7-medit/pkg/addrtable"
	"github.com/aktsk/ff7-medit/pkg/converter"
	"github.com/aktsk/ff7-medit/pkg/dispatch"
	"github.com/aktsk/ff7-medit/pkg/gamedata"
)

func init() {
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Interactive prompt",
		Run:   runShell,
	}
	RootCmd.AddCommand(cmd)
}

var errExit = errors.New("exit")

var shellCommands = []prompt.Suggest{
	{Text: "status", Description: "is the game running"},
	{Text: "snapshot", Description: "read every field"},
	{Text: "read", Description: "read <field>"},
	{Text: "write", Description: "write <field> <hex>"},
	{Text: "text", Description: "text <field> <string>, FF7 field text"},
	{Text: "set", Description: "set <field> <value>"},
	{Text: "fields", Description: "list fields"},
	{Text: "scenes", Description: "scenes [path]"},
	{Text: "exit"},
}

// takesField lists the commands whose first argument is a field name.
var takesField = map[string]bool{"read": true, "write": true, "text": true, "set": true}

// parseShellLine maps one prompt line to a registry command.
func parseShellLine(in string) (name string, args any, err error) {
	words := strings.Fields(in)
	if len(words) == 0 {
		return "", nil, nil
	}
	need := func(n int) error {
		if len(words) < n+1 {
			return fmt.Errorf("%s needs %d argument(s)", words[0], n)
		}
		return nil
	}
	switch words[0] {
	case "status":
		return dispatch.CmdIsRunning, nil, nil
	case "snapshot":
		return dispatch.CmdReadSnapshot, nil, nil
	case "fields":
		return dispatch.CmdListFields, nil, nil
	case "read":
		if err := need(1); err != nil {
			return "", nil, err
		}
		return dispatch.CmdReadField, dispatch.FieldArgs{Field: words[1]}, nil
	case "write":
		if err := need(2); err != nil {
			return "", nil, err
		}
		data, err := converter.HexToBytes(strings.Join(words[2:], ""))
		if err != nil {
			return "", nil, err
		}
		return dispatch.CmdWriteBuffer, dispatch.WriteBufferArgs{Field: words[1], Data: data}, nil
	case "text":
		if err := need(2); err != nil {
			return "", nil, err
		}
		// keep inner spacing of the message
		rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(in), words[0]))
		msg := strings.TrimSpace(strings.TrimPrefix(rest, words[1]))
		data, err := converter.StringToFF7Text(msg)
		if err != nil {
			return "", nil, err
		}
		return dispatch.CmdWriteBuffer, dispatch.WriteBufferArgs{Field: words[1], Data: data}, nil
	case "set":
		if err := need(2); err != nil {
			return "", nil, err
		}
		return dispatch.CmdWriteValue, dispatch.WriteValueArgs{Field: words[1], Value: words[2]}, nil
	case "scenes":
		path := ""
		if len(words) > 1 {
			path = words[1]
		}
		return dispatch.CmdDecodeSceneFile, dispatch.SceneFileArgs{Path: path}, nil
	case "exit", "quit":
		return "", nil, errExit
	}
	return "", nil, fmt.Errorf("command not found: %s", words[0])
}

func newExecutor(a *app) func(string) {
	return func(in string) {
		name, args, err := parseShellLine(in)
		if errors.Is(err, errExit) {
			os.Exit(0)
		}
		if err != nil {
			fmt.Println(err)
			return
		}
		if name == "" {
			return
		}
		res, err := a.invoke(context.Background(), name, args)
		if err != nil {
			fmt.Printf("%s: %v\n", dispatch.ErrorOf(err).Kind, err)
			return
		}
		if snap, ok := res.(*gamedata.Snapshot); ok {
			_ = writeFields(os.Stdout, snap.Fields)
			return
		}
		printJSON(res)
	}
}

func newCompleter(table *addrtable.Table) prompt.Completer {
	fields := []prompt.Suggest{}
	for _, e := range table.Entries() {
		fields = append(fields, prompt.Suggest{Text: e.Name, Description: fmt.Sprintf("%s, %d bytes", e.Kind, e.Size)})
	}
	return func(d prompt.Document) []prompt.Suggest {
		words := strings.Fields(d.TextBeforeCursor())
		word := d.GetWordBeforeCursor()
		switch {
		case len(words) == 0 || (len(words) == 1 && word != ""):
			return prompt.FilterHasPrefix(shellCommands, word, true)
		case takesField[words[0]] && (len(words) == 1 || (len(words) == 2 && word != "")):
			return prompt.FilterHasPrefix(fields, word, true)
		}
		return []prompt.Suggest{}
	}
}

func runShell(cmd *cobra.Command, args []string) {
	a := mustApp(cmd)
	running, _ := a.invoke(cmd.Context(), dispatch.CmdIsRunning, nil)
	fmt.Printf("build %s, game running: %v\n", a.bridge.Table().Build(), running)

	p := prompt.New(
		newExecutor(a),
		newCompleter(a.bridge.Table()),
		prompt.OptionPrefix("ff7> "),
		prompt.OptionTitle("ff7-medit"),
	)
	p.Run()
}

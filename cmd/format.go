package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/aktsk/ff7-medit/pkg/addrtable"
	"github.com/aktsk/ff7-medit/pkg/gamedata"
	"github.com/aktsk/ff7-medit/pkg/scene/ff7"
)

const maxHexColumn = 32

func writeFields(w io.Writer, fields []gamedata.Field) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FIELD\tADDRESS\tSIZE\tVALUE")
	for _, f := range fields {
		fmt.Fprintf(tw, "%s\t0x%08x\t%d\t%s\n", f.Name, f.Address, f.Size, fieldValue(f))
	}
	return tw.Flush()
}

func fieldValue(f gamedata.Field) string {
	if f.Value != nil {
		return fmt.Sprintf("%d (0x%x)", *f.Value, *f.Value)
	}
	s := f.Data.String()
	if len(s) > maxHexColumn {
		return s[:maxHexColumn] + "..."
	}
	return s
}

func writeEntries(w io.Writer, table *addrtable.Table) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "# build %s\n", table.Build())
	fmt.Fprintln(tw, "FIELD\tKIND\tOFFSET\tADDRESS\tSIZE")
	for _, e := range table.Entries() {
		fmt.Fprintf(tw, "%s\t%s\t0x%x\t0x%08x\t%d\n", e.Name, e.Kind, e.Offset, table.Address(e), e.Size)
	}
	return tw.Flush()
}

func writeScenes(w io.Writer, scenes []ff7.BattleScene) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCENE\tENEMIES\tLOCATIONS")
	for _, s := range scenes {
		names := make([]string, 0, len(s.Enemies))
		for _, e := range s.Enemies {
			names = append(names, fmt.Sprintf("%s(%d)", e.Name, e.ID))
		}
		locs := []string{}
		for _, f := range s.Formations {
			if len(f.Enemies) == 0 {
				continue
			}
			locs = append(locs, fmt.Sprintf("%d", f.Setup.BattleLocation))
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", s.Index, strings.Join(names, ", "), strings.Join(locs, " "))
	}
	return tw.Flush()
}

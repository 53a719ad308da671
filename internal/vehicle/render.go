package vehicle

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// Render 输出纯文本卡片；无字段时回退为原始文本
func Render(w io.Writer, text string, fields Fields) error {
	if _, err := fmt.Fprintln(w, "Vehicle Information"); err != nil {
		return err
	}
	ordered := fields.Ordered()
	if len(ordered) == 0 {
		_, err := fmt.Fprintln(w, text)
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, f := range ordered {
		fmt.Fprintf(tw, "  %s:\t%s\n", f.Label, f.Value)
	}
	return tw.Flush()
}

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/absfs/pagefs"
	"github.com/spf13/cobra"
)

func parseOffset(s, name string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	if err := pagefs.ValidateOffset(v, name); err != nil {
		return 0, err
	}
	return v, nil
}

func newCatCmd(a *app) *cobra.Command {
	var (
		offset int64
		count  int64
	)

	cmd := &cobra.Command{
		Use:   "cat PATH",
		Short: "Print file contents",
		Long: `Print the contents of a file, starting at --offset.

At most --count bytes are printed when --count is not negative.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withFile(args[0], os.O_RDONLY, func(f *pagefs.File) error {
				if _, err := f.Seek(offset, io.SeekStart); err != nil {
					return err
				}
				var r io.Reader = f
				if count >= 0 {
					r = io.LimitReader(f, count)
				}
				_, err := io.Copy(cmd.OutOrStdout(), r)
				return err
			})
		},
	}

	cmd.Flags().Int64Var(&offset, "offset", 0, "Offset to start reading at")
	cmd.Flags().Int64VarP(&count, "count", "n", -1, "Number of bytes to print, negative for all")

	return cmd
}

func newLinesCmd(a *app) *cobra.Command {
	var (
		maxLen int
		from   int64
		number bool
	)

	cmd := &cobra.Command{
		Use:   "lines PATH",
		Short: "Print a file line by line through the read-ahead page",
		Long: `Print the lines of a file starting at --from.

Each line is read with a buffer of --max bytes; longer lines are read in
several pieces and printed joined.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := pagefs.ValidateSize(maxLen, "max", 1, pagefs.MaxLineLength); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return a.withFile(args[0], os.O_RDONLY, func(f *pagefs.File) error {
				if _, err := f.Seek(from, io.SeekStart); err != nil {
					return err
				}
				buf := make([]byte, maxLen)
				lineNo, continued := 1, false
				for {
					n, isPrefix, err := f.GetNextLine(buf)
					if errors.Is(err, io.EOF) {
						return nil
					}
					if err != nil {
						return err
					}
					if number && !continued {
						fmt.Fprintf(out, "%6d\t", lineNo)
						lineNo++
					}
					out.Write(buf[:n])
					if !isPrefix {
						io.WriteString(out, "\n")
					}
					continued = isPrefix
				}
			})
		},
	}

	cmd.Flags().IntVar(&maxLen, "max", 4096, "Line buffer size in bytes")
	cmd.Flags().Int64Var(&from, "from", 0, "Offset to start reading at")
	cmd.Flags().BoolVarP(&number, "number", "N", false, "Number the output lines")

	return cmd
}

func newPrintfCmd(a *app) *cobra.Command {
	var newline bool

	cmd := &cobra.Command{
		Use:   "printf PATH OFFSET FORMAT [ARG...]",
		Short: "Write formatted text at an offset through the write-back page",
		Long: `Format ARGs according to FORMAT and write the result at OFFSET.

Backslash escapes such as \n and \t in FORMAT are interpreted. The file is
created if it does not exist; existing contents outside the written range are
kept.`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			off, err := parseOffset(args[1], "offset")
			if err != nil {
				return err
			}
			format := unescape(args[2])
			if newline {
				format += "\n"
			}
			fmtArgs := make([]any, len(args)-3)
			for i, s := range args[3:] {
				fmtArgs[i] = s
			}
			return a.withFile(args[0], os.O_RDWR|os.O_CREATE, func(f *pagefs.File) error {
				n, err := f.Printf(off, format, fmtArgs...)
				if err != nil {
					return err
				}
				a.logger.Info("printf", "path", args[0], "offset", off, "bytes", n)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&newline, "newline", "l", false, "Append a newline")

	return cmd
}

// unescape interprets Go string escapes in s and returns s unchanged when it
// does not form a valid quoted string.
func unescape(s string) string {
	u, err := strconv.Unquote(`"` + s + `"`)
	if err != nil {
		return s
	}
	return u
}

func newTruncateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "truncate PATH SIZE",
		Short: "Change the size of a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			size, err := parseOffset(args[1], "size")
			if err != nil {
				return err
			}
			return a.withFile(args[0], os.O_RDWR, func(f *pagefs.File) error {
				return f.Truncate(size)
			})
		},
	}
}

func newSizeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "size PATH",
		Short: "Print the size of a file in bytes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withFile(args[0], os.O_RDONLY, func(f *pagefs.File) error {
				size, err := f.Size()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), size)
				return nil
			})
		},
	}
}

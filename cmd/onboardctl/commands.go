package main

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"aplite/internal/onboarding/backend"
	"aplite/internal/onboarding/models"
)

func stateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Show the wizard state and step progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.print(a.ctrl.View())
		},
	}
}

func draftCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Inspect and edit local step drafts",
	}

	show := &cobra.Command{
		Use:   "show STEP",
		Short: "Show a step's draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			step, err := models.ParseStepID(args[0])
			if err != nil {
				return err
			}
			view, err := a.ctrl.Screen(step)
			if err != nil {
				return err
			}
			return a.print(view.Draft)
		},
	}

	var fromFile string
	set := &cobra.Command{
		Use:   "set STEP [JSON]",
		Short: "Merge a JSON object into a step's draft",
		Example: `  onboardctl draft set 1 '{"legal_name":"Acme Robotics LLC"}'
  onboardctl draft set 4 --file bank.json`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			step, err := models.ParseStepID(args[0])
			if err != nil {
				return err
			}
			patch, err := readPatch(cmd.InOrStdin(), args[1:], fromFile)
			if err != nil {
				return err
			}
			d, err := a.ctrl.PatchDraft(a.ctx, step, patch)
			if err != nil {
				return err
			}
			return a.print(d)
		},
	}
	set.Flags().StringVarP(&fromFile, "file", "f", "", "read the patch from a file (- for stdin)")

	selectID := &cobra.Command{
		Use:   "select-id PATH",
		Short: "Choose the ID document uploaded when step 3 is submitted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := selectionFor(args[0])
			if err != nil {
				return err
			}
			patch, err := json.Marshal(map[string]any{"selected_file": sel})
			if err != nil {
				return err
			}
			d, err := a.ctrl.PatchDraft(a.ctx, models.StepIdentity, patch)
			if err != nil {
				return err
			}
			return a.print(d)
		},
	}

	cmd.AddCommand(show, set, selectID)
	return cmd
}

func uploadCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload documents right away",
	}

	idDoc := &cobra.Command{
		Use:   "id PATH",
		Short: "Upload a government ID document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := loadFile(args[0])
			if err != nil {
				return err
			}
			res, err := a.ctrl.UploadID(a.ctx, file)
			if err != nil {
				return err
			}
			return a.print(res)
		},
	}

	formation := &cobra.Command{
		Use:   "formation DOC_TYPE PATH",
		Short: "Upload a business formation document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := loadFile(args[1])
			if err != nil {
				return err
			}
			res, err := a.ctrl.UploadFormation(a.ctx, args[0], file)
			if err != nil {
				return err
			}
			return a.print(res)
		},
	}

	cmd.AddCommand(idDoc, formation)
	return cmd
}

func submitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "submit STEP",
		Short: "Validate and submit a step",
		Long:  "Validate a step locally and send it to the onboarding service. Submitting step 5 is the final submission.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			step, err := models.ParseStepID(args[0])
			if err != nil {
				return err
			}
			view, err := a.ctrl.Submit(a.ctx, step)
			if err != nil {
				return err
			}
			return a.print(view)
		},
	}
}

func gotoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "goto STEP",
		Short: "Move to a completed step or the next open one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			step, err := models.ParseStepID(args[0])
			if err != nil {
				return err
			}
			view, err := a.ctrl.GoTo(a.ctx, step)
			if err != nil {
				return err
			}
			return a.print(view)
		},
	}
}

func verifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Enter verification after the final submission",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := a.ctrl.EnterVerification(a.ctx)
			if err != nil {
				return err
			}
			return a.print(view)
		},
	}
}

func otpCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "otp",
		Short: "Verify with a one-time code",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:       "send METHOD",
			Short:     "Send a code by email or sms",
			Args:      cobra.ExactArgs(1),
			ValidArgs: []string{models.OTPMethodEmail, models.OTPMethodSMS},
			RunE: func(cmd *cobra.Command, args []string) error {
				view, err := a.ctrl.SendOTP(a.ctx, args[0])
				if err != nil {
					return err
				}
				return a.print(view)
			},
		},
		&cobra.Command{
			Use:   "confirm CODE",
			Short: "Confirm the code you received",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				view, err := a.ctrl.ConfirmOTP(a.ctx, args[0])
				if err != nil {
					return err
				}
				return a.print(view)
			},
		},
	)
	return cmd
}

type slotsOutput struct {
	Slots []time.Time `json:"slots"`
}

func slotsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "slots",
		Short: "List open verification call slots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			slots, err := a.ctrl.AvailableSlots(a.ctx)
			if err != nil {
				return err
			}
			return a.print(slotsOutput{Slots: slots})
		},
	}
}

func scheduleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule SLOT",
		Short: "Book a verification call at one of the listed slots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// the controller only accepts slots it has listed
			if _, err := a.ctrl.AvailableSlots(a.ctx); err != nil {
				return err
			}
			view, err := a.ctrl.ScheduleCall(a.ctx, args[0])
			if err != nil {
				return err
			}
			return a.print(view)
		},
	}
}

func resubmitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resubmit",
		Short: "Start over after a rejection, keeping local drafts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := a.ctrl.Resubmit(a.ctx)
			if err != nil {
				return err
			}
			return a.print(view)
		},
	}
}

func resetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Discard the session and every local draft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := a.ctrl.Reset(a.ctx)
			if err != nil {
				return err
			}
			return a.print(view)
		},
	}
}

func readPatch(stdin io.Reader, args []string, fromFile string) (json.RawMessage, error) {
	var raw []byte
	var err error
	switch {
	case fromFile == "-":
		raw, err = io.ReadAll(stdin)
	case fromFile != "":
		raw, err = os.ReadFile(fromFile)
	case len(args) == 1:
		raw = []byte(args[0])
	default:
		return nil, fmt.Errorf("pass the patch as an argument or with --file")
	}
	if err != nil {
		return nil, fmt.Errorf("read patch: %w", err)
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("patch is not valid JSON")
	}
	return json.RawMessage(raw), nil
}

// selectionFor describes a local document without reading it; the bytes are
// read when step 3 is submitted.
func selectionFor(path string) (models.FileSelection, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return models.FileSelection{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return models.FileSelection{}, fmt.Errorf("select document: %w", err)
	}
	if info.IsDir() {
		return models.FileSelection{}, fmt.Errorf("select document: %s is a directory", path)
	}
	return models.FileSelection{
		Name:        info.Name(),
		ContentType: contentTypeOf(abs),
		Size:        info.Size(),
		Path:        abs,
	}, nil
}

func loadFile(path string) (backend.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return backend.File{}, fmt.Errorf("read document: %w", err)
	}
	return backend.File{
		Name:        filepath.Base(path),
		ContentType: contentTypeOf(path),
		Data:        data,
	}, nil
}

func contentTypeOf(path string) string {
	ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if ct == "" {
		return "application/octet-stream"
	}
	// drop parameters such as "; charset=utf-8"
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return ct
}

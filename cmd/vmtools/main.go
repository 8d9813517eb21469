package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/nirarg/vmtools/internal/config"
	"github.com/nirarg/vmtools/internal/report"
	"github.com/nirarg/vmtools/internal/targets"
	"github.com/nirarg/vmtools/internal/tools"
	"github.com/nirarg/vmtools/internal/vmware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Version information (set at build time with -ldflags)
var Version = "dev"

// Exit codes. Individual mount failures do not change the exit code; they
// are reported in the summary only.
const (
	exitOK           = 0
	exitUsage        = 1
	exitConnectivity = 2
	exitAuth         = 3
	exitInventory    = 4
	exitInterrupted  = 130
)

const disconnectTimeout = 15 * time.Second

var errInterrupted = errors.New("interrupted")

// session is an open vSphere session that can list VMs
type session interface {
	vmware.VMLister
	Disconnect(ctx context.Context) error
}

type connectFunc func(ctx context.Context, cfg config.VSphereConfig, log *logrus.Logger, username, password string) (session, error)

type vsphereSession struct {
	*vmware.Client
	*vmware.VMService
}

func connectVSphere(ctx context.Context, cfg config.VSphereConfig, log *logrus.Logger, username, password string) (session, error) {
	client := vmware.NewClient(cfg, log)
	if err := client.Connect(ctx, username, password); err != nil {
		return nil, err
	}
	return &vsphereSession{
		Client:    client,
		VMService: vmware.NewVMService(client, log),
	}, nil
}

type app struct {
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
	stdinFd int
	connect connectFunc
}

type options struct {
	configFile string
	envFile    string
	install    string
	noColor    bool
}

func newRootCmd(a *app) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "vmtools [flags] vm_list_file",
		Short: "Query and mount VMware guest tools on a list of VMs",
		Long: `vmtools reads a file of VM names, one per line, looks them up in vSphere
and reports their guest tools status. Unless --install=false is given it
mounts the guest tools installer on every listed VM without tools.

Individual mount failures are reported but do not cause a non-zero exit code.`,
		Example: `  # Mount the installer where tools are missing
  vmtools --host vcenter.example.com --username admin vms.txt

  # Only report status
  vmtools --host vcenter.example.com --install false vms.txt`,
		Version:       Version,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.run(ctx, cmd, args[0], opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.install, "install", "true", "mount the tools installer on VMs without tools (true|false)")
	flags.StringVar(&opts.configFile, "config", "", "path to configuration file")
	flags.StringVar(&opts.envFile, "env-file", ".env", "dotenv file with VMTOOLS_* overrides, ignored if absent")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable colorized output")
	flags.String("username", "", "vSphere username, prompted for if omitted")
	flags.String("password", "", "vSphere password, prompted for without echo if omitted")
	flags.String("host", "", "vSphere endpoint hostname or address")
	flags.Int("port", 443, "vSphere endpoint port")
	flags.Bool("insecure", false, "skip TLS certificate verification")
	flags.String("log-level", "", "log level (debug|info|warn|error)")

	cmd.SetIn(a.stdin)
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	return cmd
}

func (a *app) run(ctx context.Context, cmd *cobra.Command, listFile string, opts *options) error {
	install, err := strconv.ParseBool(opts.install)
	if err != nil {
		return fmt.Errorf("invalid --install value %q: must be true or false", opts.install)
	}

	envLoaded, err := config.LoadEnvFile(opts.envFile)
	if err != nil {
		return err
	}

	cfg, err := config.Load(opts.configFile, cmd.Flags())
	if err != nil {
		return err
	}

	log := setupLogger(cfg.Logging, a.stdout, a.stderr)
	log.WithFields(logrus.Fields{
		"config_file": opts.configFile,
		"env_file":    envLoaded,
		"endpoint":    cfg.VSphere.GetAddress(),
		"install":     install,
	}).Debug("Configuration loaded")

	rep := report.New(a.stdout, cfg.Report.Color && !opts.noColor)
	rep.Intro(install, listFile)

	list, err := targets.Load(listFile)
	if err != nil {
		return err
	}

	if err := promptCredentials(bufio.NewReader(a.stdin), a.stdout, a.stdinFd, &cfg.VSphere); err != nil {
		return err
	}

	rep.Connecting(cfg.VSphere.GetAddress())
	sess, err := a.connect(ctx, cfg.VSphere, log, cfg.VSphere.Username, cfg.VSphere.Password)
	if err != nil {
		if ctx.Err() != nil {
			return errInterrupted
		}
		rep.Fatal(err)
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
		defer cancel()
		if err := sess.Disconnect(disconnectCtx); err != nil {
			log.WithError(err).Warn("Error disconnecting from vSphere")
		}
	}()

	vms, err := sess.ListVMs(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return errInterrupted
		}
		rep.Fatal(err)
		return err
	}
	rep.Inventory(len(vms))

	res := tools.Resolve(vms, list)
	rep.Resolution(res, len(list))
	rep.Classification(res)

	classification := tools.Classify(res)
	if !install {
		rep.QuerySummary(classification, len(res.Unresolved))
		return nil
	}

	rep.PreMount(classification)
	results := tools.NewRemediator(log, rep).Mount(ctx, classification.NotInstalled)
	rep.Summary(results)

	if ctx.Err() != nil {
		return errInterrupted
	}
	return nil
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	if errors.Is(err, errInterrupted) {
		return exitInterrupted
	}
	switch vmware.KindOf(err) {
	case vmware.KindConnectivity:
		return exitConnectivity
	case vmware.KindAuth, vmware.KindCredentials:
		return exitAuth
	case vmware.KindInventory:
		return exitInventory
	}
	return exitUsage
}

func main() {
	a := &app{
		stdin:   os.Stdin,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		stdinFd: int(os.Stdin.Fd()),
		connect: connectVSphere,
	}

	err := newRootCmd(a).Execute()
	if err != nil && vmware.KindOf(err) == 0 && !errors.Is(err, errInterrupted) {
		// Classified errors were already reported to the operator.
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(exitCode(err))
}

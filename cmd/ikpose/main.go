// Command ikpose runs a scripted drag session headlessly and prints the
// resulting pose as YAML, in degrees.
//
//	ikpose --config . --rig rig.yaml --script drag.json
//
// Without a rig the built-in humanoid is posed. Flags override the values
// read from ikpose.cfg.json.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/phanxgames/ikpose"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// maxFrames bounds a script run so a stuck script cannot spin forever.
const maxFrames = 100000

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "ikpose:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("ikpose", pflag.ContinueOnError)
	configDir := flags.StringP("config", "c", ".", "directory containing "+ikpose.ConfigFileName)
	rigPath := flags.StringP("rig", "r", "", "rig YAML file (default: built-in humanoid)")
	scriptPath := flags.StringP("script", "s", "", "drag script JSON file")
	logLevel := flags.StringP("log-level", "l", "", "log level (debug, info, warn, error)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := ikpose.LoadConfig(*configDir)
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		cfg = ikpose.DefaultConfig()
	}
	if *rigPath != "" {
		cfg.Rig = *rigPath
	}
	if *scriptPath != "" {
		cfg.Script = *scriptPath
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	log := ikpose.NewLogger(os.Stderr, cfg.LogLevel)

	ctrl, err := buildController(cfg, log)
	if err != nil {
		return err
	}
	defer ctrl.Dispose()

	if cfg.Script != "" {
		if err := runScript(ctrl, cfg.Script, log); err != nil {
			return err
		}
	}
	ctrl.LogPose()
	return printPose(ctrl)
}

func buildController(cfg ikpose.Config, log zerolog.Logger) (*ikpose.Controller, error) {
	var (
		skel *ikpose.Skeleton
		rig  *ikpose.Rig
		err  error
	)
	if cfg.Rig != "" {
		rig, err = ikpose.LoadRigFile(cfg.Rig)
		if err != nil {
			return nil, err
		}
		skel, err = rig.Skeleton()
		if err != nil {
			return nil, err
		}
	} else {
		skel = ikpose.HumanoidSkeleton()
		rig, err = ikpose.HumanoidRig(ikpose.HumanoidBoneMap(skel))
		if err != nil {
			return nil, err
		}
	}

	skel.SetLogger(log)
	ctrl, err := ikpose.New(skel, cfg)
	if err != nil {
		return nil, err
	}
	ctrl.SetLogger(log)
	if err := rig.Apply(ctrl.Registry()); err != nil {
		ctrl.Dispose()
		return nil, err
	}
	log.Info().Int("bones", skel.Len()).Strs("chains", ctrl.Registry().Names()).Msg("rig loaded")
	return ctrl, nil
}

func runScript(ctrl *ikpose.Controller, path string, log zerolog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	runner, err := ikpose.LoadTestScript(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	ctrl.SetTestRunner(runner)

	frames := 0
	for !runner.Done() || ctrl.PendingInjections() > 0 {
		if frames >= maxFrames {
			return fmt.Errorf("%s: script still running after %d frames", path, maxFrames)
		}
		ctrl.Update()
		frames++
	}
	log.Info().Int("frames", frames).Strs("solved", ctrl.SolvedChains()).Msg("script finished")
	return nil
}

// printPose writes every bone's rotation as {bone: [x, y, z]} in degrees.
func printPose(ctrl *ikpose.Controller) error {
	skel := ctrl.Skeleton()
	out := make(map[string][3]float64, skel.Len())
	for name, e := range ctrl.Pose() {
		d := e.Degrees()
		out[name] = [3]float64{d[0], d[1], d[2]}
	}
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return err
	}
	return enc.Close()
}

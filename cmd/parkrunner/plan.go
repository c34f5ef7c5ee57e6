package main

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nerrad567/parkrunner-core/internal/api"
	"github.com/nerrad567/parkrunner-core/internal/infrastructure/config"
	"github.com/nerrad567/parkrunner-core/internal/route"
)

// plannedRoute is a mission resolved against its map.
type plannedRoute struct {
	mission route.Mission
	base    config.BaseConfig
	graph   *route.Graph
	plan    route.Plan
	turns   []api.Turn
}

func newPlanCmd(flags *globalFlags) *cobra.Command {
	var missionPath string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the cheapest route for a mission",
		Long: `Parse the course map and mission file, then print the visiting order,
the full node sequence, its cost and the turn taken at each intersection.
No hardware or broker is needed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := flags.load()
			if err != nil {
				return err
			}
			defer log.Close() //nolint:errcheck // Best effort on exit

			if missionPath == "" {
				missionPath = cfg.Course.MissionFile
			}
			r, err := planMission(cfg.Course, missionPath, log.Component("route"))
			if err != nil {
				return err
			}
			printPlan(cmd.OutOrStdout(), r)
			return nil
		},
	}
	cmd.Flags().StringVarP(&missionPath, "mission", "m", "", "mission file (default course.mission_file)")
	return cmd
}

// planMission loads the mission and its map and plans the tour.
//
// Parameters:
//   - course: Map directory and base definitions
//   - missionPath: Mission file; its map name is resolved against course.MapDir
//   - logger: Receives planner diagnostics (may be nil)
//
// Returns:
//   - *plannedRoute: Mission, graph, plan and intersection turns
//   - error: Any mission, map, base or planning failure
func planMission(course config.CourseConfig, missionPath string, logger route.Logger) (*plannedRoute, error) {
	if missionPath == "" {
		return nil, fmt.Errorf("no mission file: set course.mission_file or pass --mission")
	}
	mission, err := route.LoadMission(missionPath)
	if err != nil {
		return nil, err
	}

	base, ok := course.Base(mission.Base.String())
	if !ok {
		return nil, fmt.Errorf("mission base %s is not defined in course.bases", mission.Base)
	}

	mapPath := mission.MapName
	if !filepath.IsAbs(mapPath) {
		mapPath = filepath.Join(course.MapDir, mapPath)
	}
	graph, err := route.LoadMap(mapPath)
	if err != nil {
		return nil, err
	}

	planner := route.NewPlanner(graph)
	planner.SetLogger(logger)
	plan, err := planner.Plan(base.Start, base.End, mission.Stops())
	if err != nil {
		return nil, fmt.Errorf("planning %s: %w", missionPath, err)
	}

	turns, err := intersectionTurns(graph, plan.Nodes)
	if err != nil {
		return nil, err
	}

	return &plannedRoute{
		mission: mission,
		base:    base,
		graph:   graph,
		plan:    plan,
		turns:   turns,
	}, nil
}

// intersectionTurns returns the turn at every interior intersection node.
// A repeated stop is a lot visit, not a turn.
func intersectionTurns(g *route.Graph, nodes []string) ([]api.Turn, error) {
	turns := []api.Turn{}
	for i := 1; i < len(nodes)-1; i++ {
		if route.IsLot(nodes[i]) {
			continue
		}
		angle, err := g.TurnAngle(nodes[i-1], nodes[i], nodes[i+1])
		if err != nil {
			return nil, err
		}
		turns = append(turns, api.Turn{Node: nodes[i], Angle: angle})
	}
	return turns, nil
}

// apiRoute converts the plan for GET /api/v1/route.
func (r *plannedRoute) apiRoute() *api.Route {
	return &api.Route{
		Map:   r.mission.MapName,
		Base:  r.mission.Base.String(),
		Lots:  r.mission.Lots,
		Nodes: r.plan.Nodes,
		Cost:  r.plan.Cost,
		Turns: r.turns,
	}
}

// roundedCost is the plan cost as stored in the run log.
func (r *plannedRoute) roundedCost() int {
	return int(math.Round(r.plan.Cost))
}

func printPlan(w io.Writer, r *plannedRoute) {
	fmt.Fprintf(w, "map:    %s\n", r.mission.MapName)
	fmt.Fprintf(w, "base:   %s (%s -> %s)\n", r.mission.Base, r.base.Start, r.base.End)
	fmt.Fprintf(w, "order:  %s\n", strings.Join(r.plan.Order, ", "))
	fmt.Fprintf(w, "path:   %s\n", strings.Join(r.plan.Nodes, " -> "))
	fmt.Fprintf(w, "cost:   %g\n", r.plan.Cost)
	if len(r.turns) == 0 {
		fmt.Fprintln(w, "turns:  none")
		return
	}
	fmt.Fprintln(w, "turns:")
	for _, t := range r.turns {
		fmt.Fprintf(w, "  %-6s %+4d\n", t.Node, t.Angle)
	}
}

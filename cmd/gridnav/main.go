package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/milk9111/gridsystem/config"
	"github.com/milk9111/gridsystem/grid"
	"github.com/milk9111/gridsystem/levels"
	"github.com/milk9111/gridsystem/navigator"
	"github.com/milk9111/gridsystem/pathfinding"
	"github.com/milk9111/gridsystem/server"
	"github.com/milk9111/gridsystem/storage"
)

func main() {
	configPath := flag.String("config", "", "settings file (YAML); embedded defaults when empty")
	levelName := flag.String("level", "", "level name in levels/ (basename, .json optional)")
	from := flag.String("from", "", "start cell as x,y")
	to := flag.String("to", "", "goal cell as x,y")
	agent := flag.String("agent", "", "search on behalf of a named agent instead of -from/-layers")
	layerList := flag.String("layers", "", "comma separated requester layers; all layers when empty")
	closest := flag.Bool("closest", false, "fall back to the closest reachable cell")
	asJSON := flag.Bool("json", false, "print the path as JSON instead of a map")
	restore := flag.Bool("restore", false, "load the stored bake instead of baking")
	serve := flag.Bool("serve", false, "serve the HTTP API")
	watch := flag.Bool("watch", false, "rebake when level, rule or layer files change (with -serve)")
	flag.Parse()

	settings, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *levelName != "" {
		settings.Level = *levelName
	}

	layers, err := config.LoadLayers(settings.LayersFile)
	if err != nil {
		log.Fatal(err)
	}

	store, err := storage.Open(settings.Store)
	if err != nil {
		log.Fatal(err)
	}
	if store != nil {
		defer store.Close()
		if err := store.SaveLayers(layers.Names()); err != nil {
			log.Printf("gridnav: save layers: %v", err)
		}
	}

	lvl, err := levels.Load(settings.Level)
	if err != nil {
		log.Fatal(err)
	}
	nav, err := navigator.FromLevel(lvl, layers, navigator.Options{
		Costs: settings.Costs(),
		Limit: settings.Search.Limit,
		Store: store,
	})
	if err != nil {
		log.Fatal(err)
	}

	ev, err := bake(nav, *restore)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("gridnav: %s v%d, %d walkable cells", ev.Level, ev.Version, ev.Walkable)

	if *to != "" {
		p, err := query(nav, *from, *to, *agent, *layerList, *closest)
		if err != nil {
			log.Fatal(err)
		}
		if *asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(p); err != nil {
				log.Fatal(err)
			}
		} else {
			fmt.Println(render(lvl, p))
			fmt.Printf("has_path=%v distance=%.2f waypoints=%d expanded=%d\n",
				p.HasPath, p.TotalDistance, len(p.Waypoints), p.Expanded)
		}
	}

	if !*serve {
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *watch {
		w, err := config.NewWatcher(levels.Dir, filepath.Join(levels.Dir, "rules"), filepath.Dir(settings.LayersFile))
		if err != nil {
			log.Printf("gridnav: watch disabled: %v", err)
		} else {
			defer w.Close()
			go reloadOnChange(w, nav, settings)
		}
	}

	srv := server.New(nav)
	if err := srv.Run(ctx, settings.Server.Addr, settings.Server.Tick, settings.Server.Step); err != nil {
		log.Fatal(err)
	}
}

func bake(nav *navigator.Navigator, restore bool) (navigator.Event, error) {
	if restore {
		ev, err := nav.Restore()
		if err == nil {
			return ev, nil
		}
		log.Printf("gridnav: restore failed, baking: %v", err)
	}
	return nav.Bake()
}

func query(nav *navigator.Navigator, from, to, agent, layerList string, closest bool) (pathfinding.Path, error) {
	goal, err := grid.ParseCoord(to)
	if err != nil {
		return pathfinding.Path{}, err
	}
	if agent != "" {
		return nav.FindPathFor(agent, goal, closest)
	}
	start, err := grid.ParseCoord(from)
	if err != nil {
		return pathfinding.Path{}, err
	}
	return nav.FindPath(start, goal, parseMask(nav.Layers(), layerList), closest), nil
}

func reloadOnChange(w *config.Watcher, nav *navigator.Navigator, settings *config.Settings) {
	for {
		select {
		case name, ok := <-w.Events:
			if !ok {
				return
			}
			log.Printf("gridnav: %s changed", name)
			layers, err := config.LoadLayers(settings.LayersFile)
			if err != nil {
				log.Printf("gridnav: reload layers: %v", err)
				continue
			}
			lvl, err := levels.Load(nav.Level())
			if err != nil {
				log.Printf("gridnav: reload level: %v", err)
				continue
			}
			if _, err := nav.Reload(lvl, layers); err != nil {
				log.Printf("gridnav: rebake: %v", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			log.Printf("gridnav: watch: %v", err)
		}
	}
}

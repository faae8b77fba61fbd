package npk

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Stage2Sec/frenzy/internal/block"
	"github.com/Stage2Sec/frenzy/internal/chat"
	"github.com/Stage2Sec/frenzy/internal/logger"
	"github.com/Stage2Sec/frenzy/internal/modal"
)

// messageRef remembers where the wizard was started from so results
// and errors land back in that thread.
type messageRef struct {
	Channel  string `json:"channel,omitempty"`
	User     string `json:"user,omitempty"`
	ThreadTS string `json:"threadTs,omitempty"`
}

// campaignState is the wizard's working state, carried in the view's
// metadata across every interaction.
type campaignState struct {
	Message          messageRef                `json:"message,omitempty"`
	ForceRegion      string                    `json:"forceRegion,omitempty"`
	HashType         string                    `json:"hashType,omitempty"`
	SelectedInstance string                    `json:"selectedInstance,omitempty"`
	Instances        map[string]*FamilyPricing `json:"instances,omitempty"`
	IdealG3Instance  *IdealInstance            `json:"idealG3Instance,omitempty"`
	IdealP2Instance  *IdealInstance            `json:"idealP2Instance,omitempty"`
	IdealP3Instance  *IdealInstance            `json:"idealP3Instance,omitempty"`
	InstanceCount    int                       `json:"instanceCount,omitempty"`
	InstanceDuration int                       `json:"instanceDuration,omitempty"`
	WordlistEnabled  bool                      `json:"wordlistEnabled,omitempty"`
	MaskEnabled      bool                      `json:"maskEnabled,omitempty"`
}

// ideal returns the ideal placement for an instance family, nil for an
// unknown family.
func (s *campaignState) ideal(family string) *IdealInstance {
	switch family {
	case "g3":
		return s.IdealG3Instance
	case "p2":
		return s.IdealP2Instance
	case "p3":
		return s.IdealP3Instance
	}
	return nil
}

// setIdeal stores freshly fetched ideal placements.
func (s *campaignState) setIdeal(prices *InstancePrices) {
	s.IdealG3Instance = prices.IdealG3Instance
	s.IdealP2Instance = prices.IdealP2Instance
	s.IdealP3Instance = prices.IdealP3Instance
}

// wizard drives the campaign creation modal.
type wizard struct {
	client     chat.Client
	controller *modal.Controller[campaignState]
	pricing    PricingClient
	files      FileStore
	campaigns  CampaignClient
	options    *chat.OptionStore
	heartbeats *Heartbeat
	interval   time.Duration
}

// update runs one modal update cycle and logs failures; interaction
// handlers have no caller to return errors to, and the origin thread
// to report into rides inside the metadata that may be what failed.
func (w *wizard) update(ctx context.Context, view *chat.View, mutate modal.MutateFunc[campaignState]) {
	if err := w.controller.Update(ctx, view, mutate); err != nil {
		logger.Error("Campaign modal update failed: %v", err)
	}
}

// listFiles lists campaign files of a kind, failing soft: a storage
// error renders as an empty select rather than aborting the wizard.
func (w *wizard) listFiles(ctx context.Context, kind FileKind, forceRegion string) []string {
	files, err := w.files.List(ctx, kind, forceRegion)
	if err != nil {
		logger.Error("Error getting %s files: %v", kind, err)
		return nil
	}
	return files
}

func fileOptions(files []string) []*block.Option {
	options := make([]*block.Option, 0, len(files))
	for _, f := range files {
		options = append(options, block.NewOption(f, f))
	}
	return options
}

// openCampaignModal opens the wizard. Trigger ids expire before the
// pricing and file lookups finish, so a loading placeholder goes out
// synchronously and the full form arrives as an update.
func (w *wizard) openCampaignModal(ctx context.Context, ev *chat.BlockActionEvent) {
	origin := messageRef{
		Channel:  ev.Channel,
		User:     ev.User,
		ThreadTS: ev.ThreadTS,
	}

	placeholder := &chat.View{
		CallbackID: "campaign",
		Title:      block.PlainText("Create Campaign"),
		Close:      block.PlainText("Close"),
		Blocks: []block.Block{
			block.NewSection(block.SectionParams{
				BlockID: "loading",
				Text:    "Loading...",
			}),
		},
	}

	reportCtx := context.WithoutCancel(ctx)
	_, err := w.controller.OpenAndLoad(ctx, ev.TriggerID, placeholder,
		func(ctx context.Context, view *chat.View, state *campaignState) error {
			state.Message = origin

			prices, err := w.pricing.InstancePrices(ctx, state.ForceRegion)
			if err != nil {
				return err
			}
			state.setIdeal(prices)
			state.InstanceCount = 2
			state.InstanceDuration = 4

			hashFiles := w.listFiles(ctx, FileHash, "")

			view.Submit = block.PlainText("Create")
			view.Blocks = campaignBlocks(hashFiles, state)
			return nil
		},
		func(error) {
			chat.PostError(reportCtx, w.client, origin.Channel, origin.ThreadTS,
				"An unexpected error ocurred")
		})
	if err != nil {
		logger.Error("Error opening campaign modal: %v", err)
	}
}

// campaignBlocks builds the full wizard form.
func campaignBlocks(hashFiles []string, state *campaignState) []block.Block {
	countOptions := make([]*block.Option, 0, 6)
	for n := 1; n <= 6; n++ {
		countOptions = append(countOptions, block.NewOption(strconv.Itoa(n), n))
	}
	durationOptions := make([]*block.Option, 0, 24)
	for n := 1; n <= 24; n++ {
		durationOptions = append(durationOptions, block.NewOption(fmt.Sprintf("%d hour(s)", n), n))
	}

	blocks := []block.Block{
		block.NewSection(block.SectionParams{
			BlockID: "hashTypes",
			Text:    "Hash Type",
			Accessory: block.NewExternalSelect(block.ExternalSelectParams{
				MinQueryLength: 1,
			}),
		}),
		block.NewDivider(),
		block.NewSection(block.SectionParams{
			BlockID: "forceRegion",
			Text:    "Force Region",
			Accessory: block.NewStaticSelect(block.StaticSelectParams{
				Options: []*block.Option{
					block.NewOption("Any", nil),
					block.NewOption("West-1", "us-west-1"),
					block.NewOption("West-2", "us-west-2"),
					block.NewOption("East-1", "us-east-1"),
				},
				InitialOption: block.NewOption("Any", nil),
			}),
		}),
		block.NewDivider(),
	}
	blocks = append(blocks, instanceBlocks()...)
	blocks = append(blocks,
		block.NewDivider(),
		block.NewHeader(block.HeaderParams{Text: "Target List"}),
		block.NewInput(block.InputParams{
			BlockID: "hashFile",
			Label:   "Hashes File",
			Element: block.NewStaticSelect(block.StaticSelectParams{
				Options: fileOptions(hashFiles),
			}),
		}),
		block.NewDivider(),
		block.NewHeader(block.HeaderParams{Text: "Attack Type"}),
		block.NewSection(block.SectionParams{
			BlockID: "wordlistAttackToggle",
			Text:    "Wordlist Attack",
			Accessory: block.NewButton(block.ButtonParams{
				Text:  "Enable",
				Value: "true",
			}),
		}),
		block.NewDivider(),
		block.NewSection(block.SectionParams{
			BlockID: "maskConfigToggle",
			Text:    "Mask Configuration",
			Accessory: block.NewButton(block.ButtonParams{
				Text:  "Enable",
				Value: "true",
			}),
		}),
		block.NewDivider(),
		block.NewHeader(block.HeaderParams{Text: "Resource Allocation"}),
		block.NewSection(block.SectionParams{
			BlockID: "instanceCount",
			Text:    "Instance Count",
			Accessory: block.NewStaticSelect(block.StaticSelectParams{
				Options:       countOptions,
				InitialOption: block.NewOption(strconv.Itoa(state.InstanceCount), state.InstanceCount),
			}),
		}),
		block.NewSection(block.SectionParams{
			BlockID: "instanceDuration",
			Text:    "Duration",
			Accessory: block.NewStaticSelect(block.StaticSelectParams{
				Options:       durationOptions,
				InitialOption: block.NewOption(fmt.Sprintf("%d hour(s)", state.InstanceDuration), state.InstanceDuration),
			}),
		}),
		block.NewDivider(),
		block.NewHeader(block.HeaderParams{
			BlockID: "totalPrice",
			Text:    "Total: $?.??",
		}),
	)
	return blocks
}

// instanceBlocks builds one selectable section per instance family.
func instanceBlocks() []block.Block {
	families := []struct {
		family string
		gpu    string
	}{
		{"g3", "(Tesla M60)"},
		{"p2", "(Tesla K80)"},
		{"p3", "(Tesla V100)"},
	}

	blocks := make([]block.Block, 0, len(families))
	for _, f := range families {
		blocks = append(blocks, block.NewSection(block.SectionParams{
			BlockID: "instance_" + f.family,
			Text:    f.gpu,
			Fields: []*block.Text{
				block.Markdown("*Price*:"),
				block.PlainText("$?.??/Hr"),
				block.Markdown("*Hash Price*:"),
				block.PlainText("???/$"),
			},
			Accessory: block.NewButton(block.ButtonParams{
				Text:     "Select",
				ActionID: "selectInstance",
				Value:    f.family,
			}),
		}))
	}
	return blocks
}

func toggleOn(button *block.Button) {
	button.Style = "primary"
}

func toggleOff(button *block.Button) {
	button.Style = ""
}

// handleForceRegion stores the chosen region, refreshes ideal
// placements, and clears the instance selection: prices for the old
// selection no longer apply.
func (w *wizard) handleForceRegion(ctx context.Context, ev *chat.BlockActionEvent) {
	action := ev.First()
	if action == nil || ev.View == nil {
		return
	}
	w.update(ctx, ev.View, func(ctx context.Context, view *chat.View, state *campaignState) error {
		state.ForceRegion = action.SelectedValue()
		if chat.IsFalsy(state.ForceRegion) {
			state.ForceRegion = ""
		}

		prices, err := w.pricing.InstancePrices(ctx, state.ForceRegion)
		if err != nil {
			return err
		}
		state.setIdeal(prices)

		state.SelectedInstance = ""
		return w.updateInstances(ctx, view, state)
	})
}

// handleSelectInstance stores the clicked family and re-renders the
// instance sections.
func (w *wizard) handleSelectInstance(ctx context.Context, ev *chat.BlockActionEvent) {
	action := ev.First()
	if action == nil || ev.View == nil {
		return
	}
	w.update(ctx, ev.View, func(ctx context.Context, view *chat.View, state *campaignState) error {
		state.SelectedInstance = action.Value
		return w.updateInstances(ctx, view, state)
	})
}

// handleHashType stores the chosen hash type and refreshes per-family
// pricing.
func (w *wizard) handleHashType(ctx context.Context, ev *chat.BlockActionEvent) {
	action := ev.First()
	if action == nil || ev.View == nil {
		return
	}
	w.update(ctx, ev.View, func(ctx context.Context, view *chat.View, state *campaignState) error {
		state.HashType = action.SelectedValue()
		if chat.IsFalsy(state.HashType) {
			state.HashType = ""
		}
		return w.updateInstances(ctx, view, state)
	})
}

// handleWordlistToggle reveals or hides the wordlist and rules inputs
// right below the toggle. Enabling then disabling restores the block
// sequence exactly.
func (w *wizard) handleWordlistToggle(ctx context.Context, ev *chat.BlockActionEvent) {
	action := ev.First()
	if action == nil || ev.View == nil {
		return
	}
	w.update(ctx, ev.View, func(ctx context.Context, view *chat.View, state *campaignState) error {
		state.WordlistEnabled = action.Value == "true"

		section, err := block.FindSection(view.Blocks, "wordlistAttackToggle")
		if err != nil {
			return err
		}
		button, ok := section.Accessory.(*block.Button)
		if !ok {
			return fmt.Errorf("wordlist toggle accessory is not a button")
		}
		index := block.Index(view.Blocks, section)

		if state.WordlistEnabled {
			toggleOn(button)
			button.Text = block.PlainText("Enabled")
			button.Value = "false"

			wordlists := w.listFiles(ctx, FileWordlist, state.ForceRegion)
			rules := w.listFiles(ctx, FileRule, state.ForceRegion)

			block.Splice(&view.Blocks, index+1, 0,
				block.NewInput(block.InputParams{
					BlockID: "wordlist",
					Label:   "Select a wordlist",
					Element: block.NewStaticSelect(block.StaticSelectParams{
						Options: fileOptions(wordlists),
					}),
				}),
				block.NewInput(block.InputParams{
					BlockID:  "rules",
					Label:    "Select rules",
					Optional: true,
					Element: block.NewStaticSelect(block.StaticSelectParams{
						Options: fileOptions(rules),
						Multi:   true,
					}),
				}),
			)
		} else {
			toggleOff(button)
			button.Text = block.PlainText("Enable")
			button.Value = "true"

			// Remove the wordlist and rules inputs
			block.Splice(&view.Blocks, index+1, 2)
		}
		return nil
	})
}

// handleMaskToggle reveals or hides the mask input right below the
// toggle.
func (w *wizard) handleMaskToggle(ctx context.Context, ev *chat.BlockActionEvent) {
	action := ev.First()
	if action == nil || ev.View == nil {
		return
	}
	w.update(ctx, ev.View, func(ctx context.Context, view *chat.View, state *campaignState) error {
		state.MaskEnabled = action.Value == "true"

		section, err := block.FindSection(view.Blocks, "maskConfigToggle")
		if err != nil {
			return err
		}
		button, ok := section.Accessory.(*block.Button)
		if !ok {
			return fmt.Errorf("mask toggle accessory is not a button")
		}
		index := block.Index(view.Blocks, section)

		if state.MaskEnabled {
			toggleOn(button)
			button.Text = block.PlainText("Enabled")
			button.Value = "false"

			block.Splice(&view.Blocks, index+1, 0,
				block.NewInput(block.InputParams{
					BlockID: "maskBlock",
					Label:   "Mask",
					Element: block.NewPlainTextInput("mask"),
				}),
			)
		} else {
			toggleOff(button)
			button.Text = block.PlainText("Enable")
			button.Value = "true"

			// Remove the mask input
			block.Splice(&view.Blocks, index+1, 1)
		}
		return nil
	})
}

// handleInstanceCount stores the chosen count and refreshes the total.
func (w *wizard) handleInstanceCount(ctx context.Context, ev *chat.BlockActionEvent) {
	action := ev.First()
	if action == nil || ev.View == nil {
		return
	}
	w.update(ctx, ev.View, func(ctx context.Context, view *chat.View, state *campaignState) error {
		count, err := strconv.Atoi(action.SelectedValue())
		if err != nil {
			return fmt.Errorf("parsing instance count: %w", err)
		}
		state.InstanceCount = count
		return updateTotalPrice(view, state)
	})
}

// handleInstanceDuration stores the chosen duration and refreshes the
// total.
func (w *wizard) handleInstanceDuration(ctx context.Context, ev *chat.BlockActionEvent) {
	action := ev.First()
	if action == nil || ev.View == nil {
		return
	}
	w.update(ctx, ev.View, func(ctx context.Context, view *chat.View, state *campaignState) error {
		duration, err := strconv.Atoi(action.SelectedValue())
		if err != nil {
			return fmt.Errorf("parsing instance duration: %w", err)
		}
		state.InstanceDuration = duration
		return updateTotalPrice(view, state)
	})
}

// handleHashTypeOptions answers the hash type select's type-ahead from
// the pre-computed option set.
func (w *wizard) handleHashTypeOptions(ctx context.Context, ev *chat.OptionsRequestEvent) []*block.Option {
	return chat.SearchOptions(w.options.Get("hashTypes"), ev.Value)
}

// updateInstances refreshes per-family pricing and re-renders every
// instance section: selection highlight, hourly price, and hash price.
func (w *wizard) updateInstances(ctx context.Context, view *chat.View, state *campaignState) error {
	pricing, err := w.pricing.HashPricing(ctx, state.HashType, state.ForceRegion)
	if err != nil {
		return err
	}
	state.Instances = pricing

	for _, b := range view.Blocks {
		section, ok := b.(*block.Section)
		if !ok || !strings.HasPrefix(section.BlockID, "instance_") {
			continue
		}
		button, ok := section.Accessory.(*block.Button)
		if !ok || len(section.Fields) < 4 {
			continue
		}

		family := button.Value
		if family == state.SelectedInstance {
			toggleOn(button)
		} else {
			toggleOff(button)
		}

		pricing, ok := state.Instances[family]
		if !ok {
			continue
		}
		section.Fields[1].Text = dollarString(pricing.Price) + "/Hr"

		rate := pricing.HashPrice
		if pricing.Hashes == "-" {
			rate = "-"
		}
		section.Fields[3].Text = hashesPerSecond(rate) + "/$"
	}

	return updateTotalPrice(view, state)
}

// updateTotalPrice re-renders the running total: hourly price times
// count times duration, the placeholder until an instance is selected.
func updateTotalPrice(view *chat.View, state *campaignState) error {
	var total float64
	if state.SelectedInstance != "" {
		if pricing, ok := state.Instances[state.SelectedInstance]; ok {
			total = pricing.Price * float64(state.InstanceCount) * float64(state.InstanceDuration)
		}
	}

	header, err := block.FindHeader(view.Blocks, "totalPrice")
	if err != nil {
		return err
	}
	header.Text = block.PlainText("Total: " + dollarString(total))
	return nil
}

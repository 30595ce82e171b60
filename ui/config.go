package ui

import (
	"errors"
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/forgebots/station/vision"
)

// Config holds the operator-editable settings for a run
type Config struct {
	SerialPort    string
	BaudRate      string
	UDPAddr       string
	TelemetryAddr string
	RunName       string
	ChannelsInput string
	TargetCode    string
}

type ConfigWindow struct {
	app      fyne.App
	OnSubmit func()
}

func NewConfigWindow(app fyne.App) *ConfigWindow {
	return &ConfigWindow{
		app: app,
	}
}

func (cw *ConfigWindow) loadConfigFromPreferences(cfg *Config) {
	prefs := cw.app.Preferences()
	cfg.SerialPort = prefs.StringWithFallback("serialPort", "")
	cfg.BaudRate = prefs.StringWithFallback("baudRate", "115200")
	cfg.UDPAddr = prefs.StringWithFallback("udpAddr", vision.DefaultUDPAddr)
	cfg.TelemetryAddr = prefs.StringWithFallback("telemetryAddr", "")
	cfg.RunName = prefs.StringWithFallback("runName", "")
	cfg.ChannelsInput = prefs.StringWithFallback("channelsInput", "1=X Axis,2=Y Axis")
	cfg.TargetCode = prefs.StringWithFallback("targetCode", "5432")
}

func (cw *ConfigWindow) saveConfigToPreferences(cfg *Config) {
	prefs := cw.app.Preferences()
	prefs.SetString("serialPort", cfg.SerialPort)
	prefs.SetString("baudRate", cfg.BaudRate)
	prefs.SetString("udpAddr", cfg.UDPAddr)
	prefs.SetString("telemetryAddr", cfg.TelemetryAddr)
	prefs.SetString("runName", cfg.RunName)
	prefs.SetString("channelsInput", cfg.ChannelsInput)
	prefs.SetString("targetCode", cfg.TargetCode)
}

func (cw *ConfigWindow) Show(cfg *Config) {
	window := cw.app.NewWindow("Plate Station - Configuration")
	window.Resize(fyne.NewSize(400, 300))
	window.SetCloseIntercept(func() {
		// Treat window close as cancel
		window.Close()
		cw.app.Quit()
	})
	window.Show()

	// Load config from preferences
	cw.loadConfigFromPreferences(cfg)

	serialPorts, err := vision.GetSerialPorts()
	if err != nil && !errors.Is(err, vision.ErrNoUSBSerial) {
		showError(cw.app, window, fmt.Errorf("error getting serial ports: %w", err))
		return
	}

	serialPorts = append(serialPorts, vision.SerialPortNone)

	serialEntry := widget.NewSelect(serialPorts, nil)
	if cfg.SerialPort == "" {
		cfg.SerialPort = serialPorts[0]
	}
	serialEntry.Bind(binding.BindString(&cfg.SerialPort))

	baudRateEntry := widget.NewEntry()
	baudRateEntry.Bind(binding.BindString(&cfg.BaudRate))

	udpAddrEntry := widget.NewEntry()
	udpAddrEntry.Bind(binding.BindString(&cfg.UDPAddr))

	telemetryAddrEntry := widget.NewEntry()
	telemetryAddrEntry.Bind(binding.BindString(&cfg.TelemetryAddr))

	runNameEntry := widget.NewEntry()
	runNameEntry.Bind(binding.BindString(&cfg.RunName))

	channelsEntry := widget.NewEntry()
	channelsEntry.Bind(binding.BindString(&cfg.ChannelsInput))

	targetCodeEntry := widget.NewEntry()
	targetCodeEntry.Bind(binding.BindString(&cfg.TargetCode))

	submitButton := widget.NewButton("Submit", func() {
		cw.saveConfigToPreferences(cfg)
		cw.OnSubmit()
		window.Close()
	})
	submitButton.Disable()

	validateForm := func() {
		allFieldsValid := cfg.SerialPort != "" &&
			cfg.BaudRate != "" &&
			cfg.TargetCode != ""

		if allFieldsValid {
			submitButton.Enable()
		}
	}

	// Add listeners to field changes
	serialEntry.OnChanged = func(_ string) { validateForm() }
	baudRateEntry.OnChanged = func(_ string) { validateForm() }
	udpAddrEntry.OnChanged = func(_ string) { validateForm() }
	telemetryAddrEntry.OnChanged = func(_ string) { validateForm() }
	runNameEntry.OnChanged = func(_ string) { validateForm() }
	channelsEntry.OnChanged = func(_ string) { validateForm() }
	targetCodeEntry.OnChanged = func(_ string) { validateForm() }

	// Initial validation
	validateForm()

	form := container.NewVBox(
		widget.NewCard("Configuration", "", container.NewVBox(
			container.NewGridWithColumns(2,
				widget.NewLabel("Camera Serial Port:"),
				serialEntry,
			),
			container.NewGridWithColumns(2,
				widget.NewLabel("Baud Rate:"),
				baudRateEntry,
			),
			container.NewGridWithColumns(2,
				widget.NewLabel("Camera UDP Address:"),
				udpAddrEntry,
			),
			container.NewGridWithColumns(2,
				widget.NewLabel("Telemetry Address:"),
				telemetryAddrEntry,
			),
			container.NewGridWithColumns(2,
				widget.NewLabel("Run Name:"),
				runNameEntry,
			),
			container.NewGridWithColumns(2,
				widget.NewLabel("Channels:"),
				channelsEntry,
			),
			container.NewGridWithColumns(2,
				widget.NewLabel("Target Code:"),
				targetCodeEntry,
			),
		)),
		container.NewHBox(
			widget.NewButton("Cancel", func() {
				window.Close()
				cw.app.Quit()
			}),
			submitButton,
		),
	)

	window.SetContent(form)
}

func showError(app fyne.App, window fyne.Window, err error) {
	d := dialog.NewError(err, window)
	d.SetOnClosed(func() {
		app.Quit()
	})
	d.Show()
}

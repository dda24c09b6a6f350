package service

import (
	"fmt"
	"strings"

	"breakout_bot/internal/models"

	"go.uber.org/zap"
)

const helpText = "Команды:\n" +
	"/status — PnL и тумблеры\n" +
	"/trades — открытые сделки\n" +
	"/on <side>, /off <side> — bull | bear | mom_bull | mom_bear\n" +
	"/exit <SYMBOL> — ручной выход\n" +
	"/squareoff — закрыть всё"

func (t *Telegram) handleCommand(cmd, args string) string {
	switch cmd {
	case "start", "help":
		return helpText
	case "status":
		return t.status()
	case "trades":
		return t.openTrades()
	case "on", "off":
		side, ok := models.ParseSide(args)
		if !ok {
			return fmt.Sprintf("⚠️ Неизвестная сторона `%s`", strings.TrimSpace(args))
		}
		t.book.SetEnabled(side, cmd == "on")
		t.log.Info("[CTL] engine toggled", zap.String("side", string(side)), zap.Bool("enabled", cmd == "on"))
		return fmt.Sprintf("%s: *%s*", side, onOff(cmd == "on"))
	case "exit":
		sym := strings.ToUpper(strings.TrimSpace(args))
		if sym == "" {
			return "⚠️ Укажи символ: /exit INFY"
		}
		if !t.book.RequestExit(sym) {
			return fmt.Sprintf("📭 Открытой сделки по %s нет", sym)
		}
		t.log.Info("[CTL] manual exit requested", zap.String("symbol", sym))
		return fmt.Sprintf("🛑 Выход по %s поставлен, сработает на следующем тике", sym)
	case "squareoff":
		syms := t.book.SquareOffAll()
		if len(syms) == 0 {
			return "📭 Открытых сделок нет"
		}
		t.log.Info("[CTL] square off all", zap.Strings("symbols", syms))
		return "🛑 Выход по всем: " + strings.Join(syms, ", ")
	default:
		return helpText
	}
}

func (t *Telegram) status() string {
	per, total := t.book.PnL()
	enabled := t.book.EngineStatus()

	var b strings.Builder
	b.WriteString("*📊 Статус*\n\n")
	for _, side := range models.AllSides {
		fmt.Fprintf(&b, "%s: *%s*  PnL `%s`\n", side, onOff(enabled[side]), f2(per[side]))
	}
	fmt.Fprintf(&b, "\nИтого: `%s`\nИнструментов: `%d`", f2(total), t.book.Len())
	return b.String()
}

func (t *Telegram) openTrades() string {
	trades := t.book.Trades(true)

	var b strings.Builder
	n := 0
	for _, side := range models.AllSides {
		for _, tr := range trades[side] {
			if n == 0 {
				b.WriteString("*📈 Открытые сделки*\n\n")
			}
			n++
			fmt.Fprintf(&b, "%s [%s] qty=%d @ %s SL %s TG %s PnL `%s`\n",
				tr.Symbol, side, tr.Qty, f2(tr.Entry), f2(tr.SL), f2(tr.Target), f2(tr.PnL))
		}
	}
	if n == 0 {
		return "📭 Открытых сделок нет"
	}
	return b.String()
}

func onOff(v bool) string {
	if v {
		return "вкл"
	}
	return "выкл"
}

func f2(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

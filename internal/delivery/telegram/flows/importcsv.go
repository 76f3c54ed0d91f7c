package flows

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	"gopkg.in/telebot.v3"

	"roster-bot/internal/app/service"
	"roster-bot/internal/delivery/telegram/keyboards"
	"roster-bot/internal/delivery/telegram/router"
	"roster-bot/internal/delivery/telegram/view"
	"roster-bot/internal/domain"
)

// Telegram bots cannot download files larger than this.
const maxUpload = 20 << 20

// progressEvery throttles progress edits to stay inside Telegram's edit rate.
const progressEvery = 20

func RegisterImport(r *router.CallbackRouter, chats *Chats) {
	r.Register(keyboards.KeyImport, func(c telebot.Context, payload string) error {
		chat := chats.Get(context.Background(), c.Chat().ID)
		chat.Update(func(st *view.State) { st.Open(view.ModalImport, "") })
		return c.Send("📥 Kirim file CSV dengan kolom <code>name,age,position,salary</code>.",
			keyboards.Cancel(), telebot.ModeHTML)
	})
}

// CheckCSV rejects uploads that are empty or not plain-text CSV.
func CheckCSV(filename string, data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return errors.New("File kosong")
	}
	mt := mimetype.Detect(data)
	isCSV := mt.Is("text/csv")
	if !isCSV && !mt.Is("text/plain") {
		return errors.Errorf("File harus CSV, bukan %s", mt.String())
	}
	if !isCSV && !strings.EqualFold(filepath.Ext(filename), ".csv") {
		return errors.New("File harus berekstensi .csv")
	}
	return nil
}

// HandleDocument imports an uploaded CSV while a progress message ticks.
func HandleDocument(chats *Chats) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		ctx := context.Background()
		chat := chats.Get(ctx, c.Chat().ID)
		doc := c.Message().Document
		if doc == nil {
			return nil
		}
		if _, ok := chat.WS.Auth.Current(); !ok {
			return chat.Fail(c, domain.ErrNoSession)
		}
		if doc.FileSize > maxUpload {
			return c.Send("⚠️ File terlalu besar (maks 20 MB).")
		}

		data, err := download(chat.bot, &doc.File)
		if err != nil {
			return chat.Fail(c, err)
		}
		if err := CheckCSV(doc.FileName, data); err != nil {
			return c.Send("⚠️ " + err.Error())
		}

		chat.Update(func(st *view.State) {
			st.Close()
			st.Processing = view.LabelImport
			st.ImportPct = 0
		})
		progress, err := chat.bot.Send(chat.recipient(), view.RenderProgress(0, false), telebot.ModeHTML)
		if err != nil {
			return err
		}

		shown := 0
		n, err := chat.WS.Roster.Import(ctx, doc.FileName, bytes.NewReader(data), func(p service.Progress) {
			chat.Update(func(st *view.State) { st.ImportPct = p.Percent })
			if !p.Done && p.Percent-shown < progressEvery {
				return
			}
			shown = p.Percent
			if _, err := chat.bot.Edit(progress, view.RenderProgress(p.Percent, p.Done), telebot.ModeHTML); err != nil {
				chat.log.WithError(err).Debug("progress edit failed")
			}
		})
		chat.Update(func(st *view.State) {
			st.Processing = ""
			st.ImportPct = 0
		})
		if err != nil {
			_, _ = chat.bot.Edit(progress, "📥 Import gagal.")
			return chat.Fail(c, err)
		}
		if err := c.Send(fmt.Sprintf("✅ %d data dari %s masuk antrean.", n, doc.FileName)); err != nil {
			return err
		}
		return chat.ShowDashboard(ctx, nil)
	}
}

func download(bot Bot, f *telebot.File) ([]byte, error) {
	rc, err := bot.File(f)
	if err != nil {
		return nil, errors.Wrap(err, "download file")
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, maxUpload+1))
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}
	if len(data) > maxUpload {
		return nil, errors.New("File terlalu besar (maks 20 MB).")
	}
	return data, nil
}

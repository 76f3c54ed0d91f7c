package flows

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/telebot.v3"

	"roster-bot/internal/delivery/telegram/keyboards"
	"roster-bot/internal/delivery/telegram/middleware"
	"roster-bot/internal/delivery/telegram/router"
	"roster-bot/internal/delivery/telegram/view"
	"roster-bot/internal/domain"
)

const addPrompt = "➕ Kirim data karyawan, satu per baris:\n" +
	"<code>nama; umur; posisi; gaji</code>\n\n" +
	"Contoh:\n<code>Bob; 30; QA; 5000</code>"

// RegisterEmployees wires the add, edit and delete dialogs.
func RegisterEmployees(r *router.CallbackRouter, chats *Chats) {
	r.Register(keyboards.KeyAdd, func(c telebot.Context, payload string) error {
		chat := chats.Get(context.Background(), c.Chat().ID)
		chat.Update(func(st *view.State) { st.Open(view.ModalAdd, "") })
		return c.Send(addPrompt, keyboards.Cancel(), telebot.ModeHTML)
	})

	r.Register(keyboards.KeyEdit, func(c telebot.Context, payload string) error {
		chat := chats.Get(context.Background(), c.Chat().ID)
		chat.Update(func(st *view.State) { st.Open(view.ModalEdit, "") })
		return c.Send("✏️ Nomor baris yang akan diubah?", keyboards.Cancel())
	})

	r.Register(keyboards.KeyEditField, func(c telebot.Context, payload string) error {
		field, ok := domain.ParseSortField(payload)
		if !ok {
			return nil
		}
		chat := chats.Get(context.Background(), c.Chat().ID)
		st := chat.State()
		if st.Modal != view.ModalEdit || st.Target == "" {
			return middleware.EditOrSend(c, "Pilih baris dulu lewat tombol Edit.")
		}
		chat.mu.Lock()
		chat.field = field
		chat.mu.Unlock()
		return middleware.EditOrSend(c, fmt.Sprintf("Nilai baru untuk %s:", strings.ToLower(view.SortLabel(field))), keyboards.Cancel())
	})

	r.Register(keyboards.KeyDelete, func(c telebot.Context, payload string) error {
		chat := chats.Get(context.Background(), c.Chat().ID)
		chat.Update(func(st *view.State) { st.Open(view.ModalDelete, "") })
		return c.Send("🗑 Nomor baris yang akan dihapus?", keyboards.Cancel())
	})

	r.Register(keyboards.KeyConfirm, func(c telebot.Context, payload string) error {
		ctx := context.Background()
		chat := chats.Get(ctx, c.Chat().ID)
		st := chat.State()
		if st.Modal != view.ModalDelete || st.Target != payload {
			return middleware.EditOrSend(c, "Konfirmasi sudah kedaluwarsa.")
		}
		name := payload
		if e, ok := chat.employeeByID(payload); ok {
			name = e.Name
		}
		chat.Update(func(st *view.State) {
			st.Close()
			st.Processing = view.LabelDelete
		})
		_ = chat.RefreshDashboard(ctx)
		_, err := chat.WS.Roster.Delete(ctx, payload)
		chat.Update(func(st *view.State) { st.Processing = "" })
		if err != nil {
			_ = chat.RefreshDashboard(ctx)
			return chat.Fail(c, err)
		}
		if err := middleware.EditOrSend(c, fmt.Sprintf("🗑 %s dihapus.", name)); err != nil {
			return err
		}
		return chat.ShowDashboard(ctx, nil)
	})
}

// submitRows handles the add dialog input.
func submitRows(ctx context.Context, c telebot.Context, chat *Chat) error {
	rows, err := ParseRows(c.Text())
	if err != nil {
		return c.Send("⚠️ "+err.Error(), keyboards.Cancel())
	}
	chat.Update(func(st *view.State) {
		st.Close()
		st.Processing = view.LabelCreate
	})
	_ = chat.RefreshDashboard(ctx)
	n, err := chat.WS.Roster.Create(ctx, rows...)
	chat.Update(func(st *view.State) { st.Processing = "" })
	if err != nil {
		_ = chat.RefreshDashboard(ctx)
		return chat.Fail(c, err)
	}
	if err := c.Send(fmt.Sprintf("✅ %d data dikirim ke antrean.", n)); err != nil {
		return err
	}
	return chat.ShowDashboard(ctx, nil)
}

// pickRow resolves the row number typed in the edit or delete dialog.
func pickRow(c telebot.Context, chat *Chat, modal view.Modal) error {
	n, err := strconv.Atoi(strings.TrimSpace(c.Text()))
	if err != nil {
		return c.Send("⚠️ Ketik nomor baris dari tabel.", keyboards.Cancel())
	}
	e, ok := chat.Employee(n)
	if !ok {
		return c.Send("⚠️ Baris tidak ada di halaman ini.", keyboards.Cancel())
	}
	chat.Update(func(st *view.State) { st.Open(modal, e.ID) })
	if modal == view.ModalDelete {
		return c.Send("Hapus karyawan ini?\n\n"+view.RenderEmployee(e), keyboards.ConfirmDelete(e.ID), telebot.ModeHTML)
	}
	return c.Send("Kolom mana yang diubah?\n\n"+view.RenderEmployee(e), keyboards.EditFields(), telebot.ModeHTML)
}

// submitPatch handles the value typed after choosing a field to edit.
func submitPatch(ctx context.Context, c telebot.Context, chat *Chat, id string) error {
	chat.mu.Lock()
	field := chat.field
	chat.mu.Unlock()
	if field == "" {
		return c.Send("⚠️ Pilih kolom dulu.", keyboards.EditFields())
	}
	patch, err := ParsePatch(id, field, c.Text())
	if err != nil {
		return c.Send("⚠️ "+err.Error(), keyboards.Cancel())
	}
	chat.Update(func(st *view.State) {
		st.Close()
		st.Processing = view.LabelUpdate
	})
	chat.mu.Lock()
	chat.field = ""
	chat.mu.Unlock()
	_ = chat.RefreshDashboard(ctx)
	_, err = chat.WS.Roster.Update(ctx, patch)
	chat.Update(func(st *view.State) { st.Processing = "" })
	if err != nil {
		_ = chat.RefreshDashboard(ctx)
		return chat.Fail(c, err)
	}
	if err := c.Send("✅ Perubahan dikirim."); err != nil {
		return err
	}
	return chat.ShowDashboard(ctx, nil)
}

package flows

import (
	"context"

	"gopkg.in/telebot.v3"

	"roster-bot/internal/delivery/telegram/view"
)

// HandleText routes typed input to the dialog that is waiting for it.
func HandleText(chats *Chats) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		ctx := context.Background()
		chat := chats.Get(ctx, c.Chat().ID)
		st := chat.State()

		switch st.Modal {
		case view.ModalSearch:
			chat.Update(func(st *view.State) {
				st.Search(c.Text())
				st.Close()
			})
			return chat.ShowDashboard(ctx, nil)
		case view.ModalAdd:
			return submitRows(ctx, c, chat)
		case view.ModalEdit:
			if st.Target == "" {
				return pickRow(c, chat, view.ModalEdit)
			}
			return submitPatch(ctx, c, chat, st.Target)
		case view.ModalDelete:
			if st.Target == "" {
				return pickRow(c, chat, view.ModalDelete)
			}
			return c.Send("Gunakan tombol konfirmasi di atas.")
		case view.ModalImport:
			return c.Send("Kirim file CSV sebagai dokumen.")
		}

		if _, ok := chat.WS.Auth.Current(); !ok {
			return c.Send(helpText, telebot.ModeHTML)
		}
		return c.Send("Ketik /roster untuk membuka tabel.")
	}
}
